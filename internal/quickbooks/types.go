package quickbooks

// Remote entity shapes, limited to the fields the sync engine reads and
// writes. QuickBooks returns many more; unknown fields are ignored on
// decode and omitted on encode.

type Ref struct {
	Value string `json:"value"`
	Name  string `json:"name,omitempty"`
}

type EmailAddress struct {
	Address string `json:"Address,omitempty"`
}

type TelephoneNumber struct {
	FreeFormNumber string `json:"FreeFormNumber,omitempty"`
}

type PhysicalAddress struct {
	Line1                  string `json:"Line1,omitempty"`
	City                   string `json:"City,omitempty"`
	CountrySubDivisionCode string `json:"CountrySubDivisionCode,omitempty"`
	PostalCode             string `json:"PostalCode,omitempty"`
	Country                string `json:"Country,omitempty"`
}

// Customer is the QuickBooks customer entity. SyncToken is the concurrency
// stamp Intuit requires on every update.
type Customer struct {
	ID               string           `json:"Id,omitempty"`
	SyncToken        string           `json:"SyncToken,omitempty"`
	DisplayName      string           `json:"DisplayName,omitempty"`
	PrimaryEmailAddr *EmailAddress    `json:"PrimaryEmailAddr,omitempty"`
	PrimaryPhone     *TelephoneNumber `json:"PrimaryPhone,omitempty"`
	BillAddr         *PhysicalAddress `json:"BillAddr,omitempty"`
	Sparse           bool             `json:"sparse,omitempty"`
}

// Invoice carries transaction dates as plain YYYY-MM-DD strings, the way
// the QuickBooks API serializes them.
type Invoice struct {
	ID          string  `json:"Id,omitempty"`
	SyncToken   string  `json:"SyncToken,omitempty"`
	DocNumber   string  `json:"DocNumber,omitempty"`
	TxnDate     string  `json:"TxnDate,omitempty"`
	DueDate     string  `json:"DueDate,omitempty"`
	TotalAmt    float64 `json:"TotalAmt,omitempty"`
	CustomerRef *Ref    `json:"CustomerRef,omitempty"`
	Sparse      bool    `json:"sparse,omitempty"`
}

// Estimate is the QuickBooks counterpart of a local shop order.
type Estimate struct {
	ID          string  `json:"Id,omitempty"`
	SyncToken   string  `json:"SyncToken,omitempty"`
	DocNumber   string  `json:"DocNumber,omitempty"`
	TxnDate     string  `json:"TxnDate,omitempty"`
	TotalAmt    float64 `json:"TotalAmt,omitempty"`
	CustomerRef *Ref    `json:"CustomerRef,omitempty"`
	Sparse      bool    `json:"sparse,omitempty"`
}
