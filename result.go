package estate

// Result is the outcome of fetching a single link: either a value or the
// error that prevented producing one. The link is always set so failures
// can be resubmitted.
type Result[T any] struct {
	Link  Link
	Value T
	Err   error
}

// Success returns a successful result.
func Success[T any](link Link, value T) Result[T] {
	return Result[T]{Link: link, Value: value}
}

// Failure returns a failed result. A nil err is replaced so that OK stays
// false.
func Failure[T any](link Link, err error) Result[T] {
	if err == nil {
		err = Errorf(EINTERNAL, "fetch failed for %s", link.URL)
	}
	return Result[T]{Link: link, Err: err}
}

// OK reports whether the result holds a value.
func (r Result[T]) OK() bool {
	return r.Err == nil
}
