package port

// Opener launches a file in the OS default application. Failures are
// reported to the caller, never fatal.
type Opener interface {
	Open(path string) error
}
