package fetch

import "fmt"

// ManagedError is raised when the retry budget for a network operation is
// exhausted. It carries the last observed status code and the URL that was
// being opened so batch callers can log and continue.
type ManagedError struct {
	StatusCode int
	URL        string
	Attempts   int
}

func (e *ManagedError) Error() string {
	return fmt.Sprintf("server replied with HTTP %d after %d attempts while opening the url: %s",
		e.StatusCode, e.Attempts, e.URL)
}
