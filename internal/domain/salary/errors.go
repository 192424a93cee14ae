package salary

import "errors"

var (
	ErrPeriodNotFound           = errors.New("salary period not found")
	ErrCalculationNotFound      = errors.New("salary calculation not found")
	ErrInvalidPeriod            = errors.New("salary period start date must be before end date")
	ErrInvalidStatus            = errors.New("salary status must be draft, approved or paid")
	ErrInvalidSnapshot          = errors.New("salary snapshot is not valid")
	ErrUnsupportedSchemaVersion = errors.New("salary snapshot schema version is not supported")
)
