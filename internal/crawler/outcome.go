
package crawler

import "time"

type Kind int

const (
	KindSuccess Kind = iota
	KindTimeout
	KindHTTPError
	KindNetworkError
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindTimeout:
		return "timeout"
	case KindHTTPError:
		return "http-error"
	case KindNetworkError:
		return "network-error"
	}
	return "unknown"
}

// Outcome is the result of one Fetch. Body is set only for KindSuccess,
// StatusCode for KindSuccess and KindHTTPError, Err for every failure.
type Outcome struct {
	Kind        Kind
	Body        string
	StatusCode  int
	Status      string
	ContentType string
	FinalURL    string
	Elapsed     time.Duration
	Err         error
}

func (o Outcome) OK() bool { return o.Kind == KindSuccess }
