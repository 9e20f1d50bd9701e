package types

import (
	ierr "github.com/poolstack/poolstack/internal/errors"
)

// ClientFilter represents the filter options for listing clients
type ClientFilter struct {
	*QueryFilter

	// client_ids restricts results to clients with the specified IDs
	ClientIDs []string `json:"client_ids,omitempty" form:"client_ids"`

	// email filters clients by exact billing email
	Email string `json:"email,omitempty" form:"email"`
}

// NewClientFilter creates a new client filter with default pagination
func NewClientFilter() *ClientFilter {
	return &ClientFilter{
		QueryFilter: NewDefaultQueryFilter(),
	}
}

// NewNoLimitClientFilter creates a new client filter without pagination
func NewNoLimitClientFilter() *ClientFilter {
	return &ClientFilter{
		QueryFilter: NewNoLimitQueryFilter(),
	}
}

func (f *ClientFilter) Validate() error {
	if f.QueryFilter != nil {
		if err := f.QueryFilter.Validate(); err != nil {
			return ierr.WithError(err).WithHint("invalid query filter").Mark(ierr.ErrValidation)
		}
	}
	return nil
}

// GetLimit implements BaseFilter interface
func (f *ClientFilter) GetLimit() int {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetLimit()
	}
	return f.QueryFilter.GetLimit()
}

// GetOffset implements BaseFilter interface
func (f *ClientFilter) GetOffset() int {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetOffset()
	}
	return f.QueryFilter.GetOffset()
}

// GetSort implements BaseFilter interface
func (f *ClientFilter) GetSort() string {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetSort()
	}
	return f.QueryFilter.GetSort()
}

// GetOrder implements BaseFilter interface
func (f *ClientFilter) GetOrder() string {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetOrder()
	}
	return f.QueryFilter.GetOrder()
}

// GetStatus implements BaseFilter interface
func (f *ClientFilter) GetStatus() string {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetStatus()
	}
	return f.QueryFilter.GetStatus()
}

func (f *ClientFilter) IsUnlimited() bool {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().IsUnlimited()
	}
	return f.QueryFilter.IsUnlimited()
}
