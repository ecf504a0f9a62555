package inference

import "errors"

var (
	ErrProviderUnavailable = errors.New("inference server unavailable")
	ErrInferenceTimeout    = errors.New("inference timeout")
	ErrInvalidResponse     = errors.New("inference server returned invalid response")
	ErrNoPrediction        = errors.New("inference server did not return a prediction")
)
