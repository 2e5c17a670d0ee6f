package nested

// Extension adds behaviour around a method. Calling it with the method's
// arguments runs the before phase and returns the continuation, which
// receives the method's result and returns the result callers observe.
type Extension[A, R any] func(A) func(R) R

// Around builds an Extension from a before function, whose return value is
// handed to after together with the method's result.
func Around[A, S, R any](before func(A) S, after func(S, R) R) Extension[A, R] {
	return func(args A) func(R) R {
		var state S
		if before != nil {
			state = before(args)
		}
		return func(result R) R {
			if after == nil {
				return result
			}
			return after(state, result)
		}
	}
}

// After builds an Extension with only an after phase.
func After[A, R any](after func(A, R) R) Extension[A, R] {
	return Around(func(args A) A { return args }, after)
}

// Site names where an extension is applied, for error reporting.
type Site struct {
	Target string
	Method string
	Source string
}

// Wrap returns a function that runs ext's before phase, then method with the
// same arguments, then ext's continuation with the method's result.
//
// Wrap panics with a *ConfigError when method is nil. The returned function
// panics with a *ConfigError when ext yields no continuation.
func Wrap[A, R any](site Site, method func(A) R, ext Extension[A, R]) func(A) R {
	if method == nil {
		panic(configError(site, "method to extend does not exist"))
	}
	if ext == nil {
		panic(configError(site, "extension is nil"))
	}
	return func(args A) R {
		resume := ext(args)
		if resume == nil {
			panic(configError(site, "extension must resume the method exactly once but returned no continuation"))
		}
		return resume(method(args))
	}
}
