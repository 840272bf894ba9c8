package tool

import (
	"time"

	"github.com/matiasleandrokruk/netsuite-mcp/internal/backend"
	s "github.com/matiasleandrokruk/netsuite-mcp/internal/domain/schema"
)

const (
	BuiltinFetchCustomer    = "fetch_customer"
	BuiltinCreateCustomer   = "create_customer"
	BuiltinSearchCustomers  = "search_customers"
	BuiltinFetchSalesOrder  = "fetch_sales_order"
	BuiltinCreateSalesOrder = "create_sales_order"
	BuiltinFetchInvoice     = "fetch_invoice"
	BuiltinCreateInvoice    = "create_invoice"
	BuiltinFetchRecord      = "fetch_record"
	BuiltinCreateRecord     = "create_record"
	BuiltinUpdateRecord     = "update_record"
	BuiltinExecuteQuery     = "execute_query"
	BuiltinFetchMetadata    = "fetch_metadata"
)

// ArgAPIKey is the optional per-call credential argument.
const ArgAPIKey = "api_key"

const (
	recordBase   = backend.ServicePrefix + "record/v1/"
	suiteQLPath  = backend.ServicePrefix + "query/v1/suiteql"
	metadataPath = recordBase + "metadata-catalog"
)

func idField(name, desc string) s.Field {
	return s.Field{Name: name, Kind: s.KindString, Required: true, Description: desc, Constraints: []s.Constraint{s.Digits()}}
}

func recordTypeField() s.Field {
	return s.Field{Name: "record_type", Kind: s.KindString, Required: true, Description: "Record type from the metadata catalog (e.g. customer, salesOrder)"}
}

func payloadField(desc string) s.Field {
	return s.Field{Name: "payload", Kind: s.KindObject, Required: true, Description: desc}
}

func pagination(maxLimit, defaultLimit int64) []s.Field {
	return []s.Field{
		{Name: "limit", Kind: s.KindInteger, Default: defaultLimit, Description: "Number of results to return", Constraints: []s.Constraint{s.Min(1), s.Max(float64(maxLimit))}},
		{Name: "offset", Kind: s.KindInteger, Default: int64(0), Description: "Result offset", Constraints: []s.Constraint{s.Min(0)}},
	}
}

// BuiltinDescriptors returns the operation table.
func BuiltinDescriptors() []Descriptor {
	return []Descriptor{
		{
			Name:        BuiltinFetchCustomer,
			Description: "Fetch a customer by ID",
			Fields:      []s.Field{idField("customer_id", "Numeric customer ID")},
			Verb:        backend.VerbRead,
			Endpoint:    recordBase + "customer/{customer_id}",
			Cacheable:   true,
			TTL:         300 * time.Second,
		},
		{
			Name:        BuiltinCreateCustomer,
			Description: "Create a new customer",
			Fields: []s.Field{
				{Name: "company_name", Kind: s.KindString, Required: true, Description: "Company name", Constraints: []s.Constraint{s.MinLength(1)}},
				{Name: "email", Kind: s.KindString, Required: true, Description: "Email address"},
				{Name: "subsidiary", Kind: s.KindString, Required: true, Description: "Subsidiary ID"},
			},
			Verb:     backend.VerbCreate,
			Endpoint: recordBase + "customer",
			Payload:  customerPayload,
		},
		{
			Name:        BuiltinSearchCustomers,
			Description: "Search customers by name or email",
			Fields: append([]s.Field{
				{Name: "query", Kind: s.KindString, Required: true, Description: "Search term for company name or email", Constraints: []s.Constraint{s.MinLength(3)}},
			}, pagination(100, 10)...),
			Verb:     backend.VerbCreate,
			Endpoint: suiteQLPath,
			Payload:  customerSearchPayload,
			Reshape:  reshapeListing,
		},
		{
			Name:        BuiltinFetchSalesOrder,
			Description: "Fetch a sales order by ID",
			Fields:      []s.Field{idField("sales_order_id", "Numeric sales order ID")},
			Verb:        backend.VerbRead,
			Endpoint:    recordBase + "salesOrder/{sales_order_id}",
		},
		{
			Name:        BuiltinCreateSalesOrder,
			Description: "Create a sales order",
			Fields: []s.Field{
				idField("customer_id", "Numeric customer ID"),
				idField("item_id", "Numeric item ID"),
				{Name: "quantity", Kind: s.KindInteger, Required: true, Description: "Quantity of items", Constraints: []s.Constraint{s.Min(1)}},
			},
			Verb:     backend.VerbCreate,
			Endpoint: recordBase + "salesOrder",
			Payload:  salesOrderPayload,
		},
		{
			Name:        BuiltinFetchInvoice,
			Description: "Fetch an invoice by ID",
			Fields:      []s.Field{idField("invoice_id", "Numeric invoice ID")},
			Verb:        backend.VerbRead,
			Endpoint:    recordBase + "invoice/{invoice_id}",
		},
		{
			Name:        BuiltinCreateInvoice,
			Description: "Create an invoice",
			Fields: []s.Field{
				idField("sales_order_id", "Numeric sales order ID"),
				{Name: "amount", Kind: s.KindNumber, Required: true, Description: "Invoice amount", Constraints: []s.Constraint{s.ExclusiveMin(0)}},
			},
			Verb:     backend.VerbCreate,
			Endpoint: recordBase + "invoice",
			Payload:  invoicePayload,
		},
		{
			Name:        BuiltinFetchRecord,
			Description: "Fetch any record by type and ID",
			Fields:      []s.Field{recordTypeField(), idField("record_id", "Numeric record ID")},
			Verb:        backend.VerbRead,
			Endpoint:    recordBase + "{record_type}/{record_id}",
			Precheck:    checkRecordType,
		},
		{
			Name:        BuiltinCreateRecord,
			Description: "Create any record",
			Fields:      []s.Field{recordTypeField(), payloadField("Record data as a JSON object")},
			Verb:        backend.VerbCreate,
			Endpoint:    recordBase + "{record_type}",
			Payload:     rawPayload,
			Precheck:    checkRecordType,
		},
		{
			Name:        BuiltinUpdateRecord,
			Description: "Update any record",
			Fields: []s.Field{
				recordTypeField(),
				idField("record_id", "Numeric record ID"),
				payloadField("Updated record data as a JSON object"),
			},
			Verb:     backend.VerbUpdate,
			Endpoint: recordBase + "{record_type}/{record_id}",
			Payload:  rawPayload,
			Precheck: checkRecordType,
		},
		{
			Name:        BuiltinExecuteQuery,
			Description: "Execute a read-only SuiteQL SELECT query",
			Fields: append([]s.Field{
				{Name: "query", Kind: s.KindString, Required: true, Description: "SuiteQL SELECT query"},
			}, pagination(1000, 100)...),
			Verb:     backend.VerbCreate,
			Endpoint: suiteQLPath,
			Payload:  queryPayload,
			Precheck: checkQueryStatement,
			Reshape:  reshapeListing,
		},
		{
			Name:        BuiltinFetchMetadata,
			Description: "Fetch the record metadata catalog",
			Verb:        backend.VerbRead,
			Endpoint:    metadataPath,
			Cacheable:   true,
			TTL:         3600 * time.Second,
		},
	}
}
