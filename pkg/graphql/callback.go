package graphql

// ResponseCallback receives the outcome of one request. Exactly one of its
// methods is invoked per call.
type ResponseCallback interface {
	Success(responseBody string)
	Failure(err error)
}

// CallbackFuncs adapts a pair of functions to ResponseCallback. Nil fields are skipped.
type CallbackFuncs struct {
	OnSuccess func(responseBody string)
	OnFailure func(err error)
}

func (f CallbackFuncs) Success(responseBody string) {
	if f.OnSuccess != nil {
		f.OnSuccess(responseBody)
	}
}

func (f CallbackFuncs) Failure(err error) {
	if f.OnFailure != nil {
		f.OnFailure(err)
	}
}
