package mapper

import (
	"fmt"

	"github.com/craftyard/shopsync-worker/internal/models"
	"github.com/craftyard/shopsync-worker/internal/quickbooks"
)

// CustomerFromRemote maps a QuickBooks customer onto the local shape.
// Identifiers and sync columns are left to the caller, which knows whether
// the record matched an existing row.
func CustomerFromRemote(qc quickbooks.Customer) (models.Customer, error) {
	if qc.DisplayName == "" {
		return models.Customer{}, fmt.Errorf("remote customer %s has no display name", qc.ID)
	}

	customer := models.Customer{
		Name:    qc.DisplayName,
		Address: FormatAddress(qc.BillAddr),
	}
	if qc.PrimaryEmailAddr != nil {
		customer.Email = qc.PrimaryEmailAddr.Address
	}
	if qc.PrimaryPhone != nil {
		customer.Phone = qc.PrimaryPhone.FreeFormNumber
	}
	return customer, nil
}

// CustomerToRemote maps a local customer onto the QuickBooks shape. ID and
// SyncToken stay empty; push sets them for updates.
func CustomerToRemote(c models.Customer) quickbooks.Customer {
	qc := quickbooks.Customer{
		DisplayName: c.Name,
		BillAddr:    ParseAddress(c.Address),
	}
	if c.Email != "" {
		qc.PrimaryEmailAddr = &quickbooks.EmailAddress{Address: c.Email}
	}
	if c.Phone != "" {
		qc.PrimaryPhone = &quickbooks.TelephoneNumber{FreeFormNumber: c.Phone}
	}
	return qc
}
