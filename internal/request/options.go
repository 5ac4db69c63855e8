package request

type requestOptions struct {
	headers         map[string]string
	withCredentials bool
}

// RequestOption adjusts a single request.
type RequestOption func(*requestOptions)

// WithHeader sets a request header. Empty values are skipped.
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string)
		}
		o.headers[key] = value
	}
}

// WithCredentials sends the cookies stored in the client's jar.
func WithCredentials() RequestOption {
	return func(o *requestOptions) {
		o.withCredentials = true
	}
}
