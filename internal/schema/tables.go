package schema

// Canonical field names.
const (
	Firm                  = "Firm"
	SupplierCode          = "Supplier Code"
	ChallanNumber         = "Challan_Number"
	InvoiceMTR            = "INVOICE_MTR"
	InvoiceNo             = "INVOICE_NO"
	Description           = "Description"
	Qty                   = "Qty"
	MTR                   = "MTR"
	Rate                  = "Rate"
	Amount                = "Amount"
	CreatedDate           = "Createed_Date"
	InvoiceDate           = "Invoice_Date"
	SupplierChallanNumber = "supplier_challan_number"
	SupplierName          = "Supplier_Name"
	GstNo                 = "Gst_No"
	TaxableAmount         = "Taxable_Amount"
	GrandTotal            = "Grand_Total"
	InvoiceNumber         = "Invoice_Number"
	Discount              = "Discount"
	GstPercentage         = "Gst_Percentage"
	CGST                  = "CGST"
	SGST                  = "SGST"
	RoundOff              = "Round_Off"

	Address       = "Address"
	Number        = "Number"
	Gst           = "Gst"
	LogoLink      = "LogoLink"
	Bank          = "Bank"
	AccountName   = "Account_Name"
	AccountNumber = "Account_Number"
	Ifsc          = "Ifsc"
	Branch        = "Branch"

	PartyName    = "Supplier Name"
	PartyGSTIN   = "Supplier GSTIN"
	PartyMobile  = "Supplier Mobile"
	PartyAddress = "Supplier Address"
)

// Challan is the challan ledger. The first nine fields keep the matching
// precedence of older sheets: a bare "Meter" column is a quantity, and
// Grand_Total folds into Amount.
var Challan = NewTable("Challan",
	Field{Firm, []string{"firm", "company", "companyname"}},
	Field{SupplierCode, []string{"suppliercode", "partycode", "supplier_code", "supplier"}},
	Field{ChallanNumber, []string{"challanno", "challan_no", "challannumber", "challan"}},
	Field{InvoiceMTR, []string{"invoice_mtr", "invoicemtr", "invoicemeter"}},
	Field{Description, []string{"description", "desc", "productname", "item", "particulars"}},
	Field{Qty, []string{"qty", "quantity", "qnt", "meter", "metre", "meters", "mtrs", "mtr_qty"}},
	Field{MTR, []string{"mtr", "meter", "metre", "meters", "qty"}},
	Field{Rate, []string{"rate", "price", "per", "perunit", "per_mtr"}},
	Field{Amount, []string{"amount", "amt", "total", "subtotal", "grandtotal"}},
	Field{CreatedDate, []string{"createddate", "createdat", "timestamp"}},
	Field{InvoiceDate, []string{"invoicedate", "challandate", "date"}},
	Field{SupplierChallanNumber, []string{"supplierchallanno", "supplierchno", "supplierchallan"}},
	Field{SupplierName, []string{"suppliername", "partyname"}},
	Field{GstNo, []string{"gstno", "gstin", "suppliergstin"}},
	Field{TaxableAmount, []string{"taxableamount", "taxable"}},
	Field{InvoiceNo, []string{"invoiceno", "invoicenumber", "invno"}},
)

// Invoice is the invoice ledger.
var Invoice = NewTable("Invoice",
	Field{Firm, []string{"firm", "company", "companyname"}},
	Field{InvoiceNumber, []string{"invoiceno", "invoice_no", "invoicenumber", "invno", "invoice"}},
	Field{SupplierCode, []string{"suppliercode", "partycode", "supplier"}},
	Field{ChallanNumber, []string{"challanno", "challannumber", "chno"}},
	Field{Description, []string{"description", "desc", "productname", "item"}},
	Field{Qty, []string{"qty", "quantity", "mtr", "meter"}},
	Field{Rate, []string{"rate", "price"}},
	Field{Amount, []string{"amount", "amt"}},
	Field{CreatedDate, []string{"createddate", "createdat", "timestamp"}},
	Field{InvoiceDate, []string{"invoicedate", "date"}},
	Field{SupplierName, []string{"suppliername", "partyname"}},
	Field{GstNo, []string{"gstno", "gstin", "suppliergstin"}},
	Field{TaxableAmount, []string{"taxableamount", "taxable"}},
	Field{Discount, []string{"discount", "disc"}},
	Field{GstPercentage, []string{"gstpercentage", "gstpercent", "gstrate"}},
	Field{CGST, []string{"cgst"}},
	Field{SGST, []string{"sgst"}},
	Field{RoundOff, []string{"roundoff", "rounding"}},
	Field{GrandTotal, []string{"grandtotal", "total"}},
)

// Firms is the firm profile table.
var Firms = NewTable("ID",
	Field{Firm, []string{"firm", "company", "companyname"}},
	Field{Address, []string{"address", "addr"}},
	Field{Number, []string{"number", "mobile", "phone", "contact"}},
	Field{Gst, []string{"gst", "gstin", "gstno"}},
	Field{LogoLink, []string{"logolink", "logo", "logourl"}},
	Field{Bank, []string{"bank", "bankname"}},
	Field{AccountName, []string{"accountname", "acname"}},
	Field{AccountNumber, []string{"accountnumber", "accountno", "acno"}},
	Field{Ifsc, []string{"ifsc", "ifsccode"}},
	Field{Branch, []string{"branch"}},
)

// Suppliers is the supplier (party) profile table.
var Suppliers = NewTable("Supplier",
	Field{SupplierCode, []string{"suppliercode", "partycode", "code"}},
	Field{PartyName, []string{"suppliername", "partyname", "name"}},
	Field{PartyGSTIN, []string{"suppliergstin", "gstin", "gst"}},
	Field{PartyMobile, []string{"suppliermobile", "mobile", "phone"}},
	Field{PartyAddress, []string{"supplieraddress", "address"}},
)

// ChallanHeader is the column order of a freshly created challan ledger.
var ChallanHeader = []string{
	Firm, CreatedDate, InvoiceDate, ChallanNumber, SupplierChallanNumber,
	SupplierCode, SupplierName, GstNo, Description, Qty, Rate, Amount,
	TaxableAmount, GrandTotal, InvoiceMTR, InvoiceNo,
}

// InvoiceHeader is the column order of a freshly created invoice ledger.
var InvoiceHeader = []string{
	Firm, CreatedDate, InvoiceDate, InvoiceNumber, SupplierCode, SupplierName,
	GstNo, ChallanNumber, Description, Qty, Rate, Amount, TaxableAmount,
	Discount, GstPercentage, CGST, SGST, RoundOff, GrandTotal,
}
