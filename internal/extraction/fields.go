package extraction

import "strings"

// NotFound is stored for every field whose pattern does not match
const NotFound = "Not found"

// Field names an invoice attribute
type Field string

const (
	CompanyName   Field = "Company Name"
	GSTIN         Field = "GSTIN"
	PhoneNumber   Field = "Phone Number"
	EmailAddress  Field = "Email Address"
	InvoiceNumber Field = "Invoice Number"
	InvoiceDate   Field = "Invoice Date"
	DueDate       Field = "Due Date"
	CustomerName  Field = "Customer Name"
	PlaceOfSupply Field = "Place of Supply"
	TotalAmount   Field = "Total Amount"
	BankName      Field = "Bank Name"
	AccountNumber Field = "Account Number"
)

// Fields lists every field in display order
var Fields = []Field{
	CompanyName,
	GSTIN,
	PhoneNumber,
	EmailAddress,
	InvoiceNumber,
	InvoiceDate,
	DueDate,
	CustomerName,
	PlaceOfSupply,
	TotalAmount,
	BankName,
	AccountNumber,
}

// FieldMap maps every field to a cleaned value or NotFound
type FieldMap map[Field]string

// newFieldMap returns a map with every field set to NotFound
func newFieldMap() FieldMap {
	m := make(FieldMap, len(Fields))
	for _, f := range Fields {
		m[f] = NotFound
	}
	return m
}

// Found reports whether the field holds an extracted value
func (m FieldMap) Found(f Field) bool {
	v, ok := m[f]
	return ok && v != NotFound
}

// Missing counts the fields holding NotFound
func (m FieldMap) Missing() int {
	n := 0
	for _, f := range Fields {
		if !m.Found(f) {
			n++
		}
	}
	return n
}

// Clean trims a captured value and folds embedded line breaks into spaces.
func Clean(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.TrimSpace(s)
}
