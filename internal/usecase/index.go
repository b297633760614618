package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"docfind/internal/domain"
	"docfind/internal/port"
)

// Pipeline runs the indexing flow: walk the folder, extract text from
// files the index has not seen, chunk, embed, and store. Extraction is
// I/O-bound and runs on a worker pool; embedding runs in batches on
// the calling goroutine to keep backend load predictable.
type Pipeline struct {
	walker    port.Walker
	extractor port.Extractor
	chunker   port.Chunker
	embedder  port.Embedder
	index     port.VectorIndex
	workers   int
	batchSize int
	logger    *slog.Logger
}

// Progress is invoked after each file finishes extraction, and again
// as embedding batches complete. The two phases report different
// totals: files while extracting, chunks (with EmbedPhase as the
// filename) while embedding. Callbacks may arrive from worker
// goroutines.
type Progress func(done, total int, filename string)

// EmbedPhase is the filename passed to Progress during the embedding
// phase, whose counts are chunks rather than files.
const EmbedPhase = "embedding"

// IndexResult summarizes an indexing run.
type IndexResult struct {
	FilesIndexed  int
	FilesSkipped  int
	FilesFailed   int
	ChunksIndexed int
	Warnings      []string
}

func NewPipeline(
	walker port.Walker,
	extractor port.Extractor,
	chunker port.Chunker,
	embedder port.Embedder,
	index port.VectorIndex,
	workers int,
	batchSize int,
	logger *slog.Logger,
) *Pipeline {
	if workers <= 0 {
		workers = min(32, 4*runtime.NumCPU())
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		walker:    walker,
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		index:     index,
		workers:   workers,
		batchSize: batchSize,
		logger:    logger,
	}
}

type extracted struct {
	file   port.FileInfo
	docID  string
	chunks []domain.Chunk
}

// Index scans root and brings the index up to date with its contents.
// Files whose path and modification time match an already indexed
// document are skipped without being read.
func (p *Pipeline) Index(ctx context.Context, root string, progress Progress) (*IndexResult, error) {
	if err := p.walker.ValidateRoot(root); err != nil {
		return nil, err
	}

	files, err := p.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("scan folder: %w", err)
	}

	known, err := p.index.DocIDs()
	if err != nil {
		return nil, fmt.Errorf("list indexed documents: %w", err)
	}

	result := &IndexResult{}
	var todo []port.FileInfo
	for _, f := range files {
		if _, ok := known[domain.Fingerprint(f.Path, f.ModTime)]; ok {
			result.FilesSkipped++
			continue
		}
		todo = append(todo, f)
	}

	p.logger.Info("indexing",
		"root", root, "files", len(files),
		"unchanged", result.FilesSkipped, "to_index", len(todo))

	if len(todo) == 0 {
		return result, nil
	}

	docs, err := p.extractAll(ctx, todo, result, progress)
	if err != nil {
		return nil, err
	}

	if err := p.embedAndStore(ctx, docs, result, progress); err != nil {
		return nil, err
	}

	p.logger.Info("indexing done",
		"indexed", result.FilesIndexed, "skipped", result.FilesSkipped,
		"failed", result.FilesFailed, "chunks", result.ChunksIndexed)
	return result, nil
}

// extractAll runs extraction and chunking on the worker pool. Failures
// are recorded as warnings; a single unreadable file never aborts the
// run.
func (p *Pipeline) extractAll(ctx context.Context, todo []port.FileInfo, result *IndexResult, progress Progress) ([]extracted, error) {
	pool, err := ants.NewPool(p.workers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		docs []extracted
		done int
	)
	total := len(todo)

	for _, f := range todo {
		if err := ctx.Err(); err != nil {
			break
		}

		f := f
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()

			doc, err := p.extractOne(ctx, f)

			mu.Lock()
			defer mu.Unlock()
			done++
			if err != nil {
				result.FilesFailed++
				result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %v", f.Path, err))
				p.logger.Debug("extraction failed", "path", f.Path, "error", err)
			} else {
				docs = append(docs, doc)
			}
			if progress != nil {
				progress(done, total, f.Name)
			}
		})
		if submitErr != nil {
			wg.Done()
			wg.Wait()
			return nil, fmt.Errorf("submit extraction task: %w", submitErr)
		}
	}

	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

func (p *Pipeline) extractOne(ctx context.Context, f port.FileInfo) (extracted, error) {
	text, err := p.extractor.Extract(ctx, f.Path, f.Ext)
	if err != nil {
		return extracted{}, err
	}

	docID := domain.Fingerprint(f.Path, f.ModTime)
	chunks, err := p.chunker.Chunk(domain.Document{
		ID:       docID,
		Path:     f.Path,
		Filename: f.Name,
		Ext:      f.Ext,
		Size:     f.Size,
		ModTime:  f.ModTime,
		Text:     text,
	})
	if err != nil {
		return extracted{}, err
	}
	return extracted{file: f, docID: docID, chunks: chunks}, nil
}

// embedAndStore embeds chunk texts in fixed-size batches and upserts
// each batch as it completes, so progress survives interruption.
func (p *Pipeline) embedAndStore(ctx context.Context, docs []extracted, result *IndexResult, progress Progress) error {
	var (
		items []port.VectorItem
		texts []string
	)
	for _, d := range docs {
		for _, c := range d.chunks {
			items = append(items, port.VectorItem{
				ID: c.ID,
				Metadata: port.Metadata{
					Source:     d.file.Path,
					Filename:   d.file.Name,
					ChunkIndex: c.Index,
				},
				Text: c.Text,
			})
			texts = append(texts, c.Text)
		}
	}

	for start := 0; start < len(items); start += p.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+p.batchSize, len(items))

		vecs, err := p.embedder.Embed(ctx, texts[start:end])
		if err != nil {
			return fmt.Errorf("embed batch: %w", err)
		}
		if len(vecs) != end-start {
			return fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), end-start)
		}

		batch := items[start:end]
		for i := range batch {
			batch[i].Vector = vecs[i]
		}
		if err := p.index.Upsert(batch); err != nil {
			return fmt.Errorf("store batch: %w", err)
		}
		result.ChunksIndexed += len(batch)
		if progress != nil {
			progress(end, len(items), EmbedPhase)
		}
	}

	result.FilesIndexed = len(docs)
	return nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
