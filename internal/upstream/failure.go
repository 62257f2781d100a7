package upstream

import "fmt"

// Failure is the one error kind the relay reports for an unsuccessful
// upstream call. StatusCode is zero when no response was received.
type Failure struct {
	StatusCode int
	Reason     string
	URL        string
	Err        error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		if msg := f.Err.Error(); msg != "" {
			return msg
		}
	}

	if f.StatusCode >= 400 {
		kind := "Client"
		if f.StatusCode >= 500 {
			kind = "Server"
		}
		return fmt.Sprintf("%d %s Error: %s for url: %s", f.StatusCode, kind, f.Reason, f.URL)
	}

	return fmt.Sprintf("upstream request failed for url: %s", f.URL)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Network reports whether the call failed before any response arrived.
func (f *Failure) Network() bool {
	return f.StatusCode == 0
}
