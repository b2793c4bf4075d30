package sales

import "errors"

// ErrMissingFields is returned when a required key is absent from a submission.
var ErrMissingFields = errors.New("missing required fields")

// ErrCoercion is returned when a present field cannot be converted to its type.
var ErrCoercion = errors.New("invalid field value")

// ErrTotalMismatch is returned by the optional total check when total != quantity * price.
var ErrTotalMismatch = errors.New("total does not match quantity times price")

// ErrNilSale is returned when trying to store a nil sale.
var ErrNilSale = errors.New("nil sale")
