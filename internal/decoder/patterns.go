package decoder

import "google.golang.org/protobuf/encoding/protowire"

// mapKey returns the encoded key of a Firestore map entry: field 1,
// length-delimited, holding name.
func mapKey(name string) []byte {
	b := protowire.AppendTag(nil, 1, protowire.BytesType)
	return protowire.AppendString(b, name)
}

// Transaction patterns.
var (
	amountAnchor         = mapKey("amount")
	transactionSignature = [][]byte{[]byte("amount"), []byte("original_name")}

	txName                 = mapKey("name")
	txOriginalName         = []byte("original_name")
	txOriginalDate         = []byte("original_date")
	txCategoryID           = []byte("category_id")
	txAccountID            = []byte("account_id")
	txTransactionID        = []byte("transaction_id")
	txCurrency             = []byte("iso_currency_code")
	txPending              = []byte("pending")
	txCity                 = mapKey("city")
	txRegion               = mapKey("region")
	txOriginalCleanName    = mapKey("original_clean_name")
	txItemID               = mapKey("item_id")
	txUserID               = mapKey("user_id")
	txPlaidCategoryID      = mapKey("plaid_category_id")
	txCategoryIDSource     = mapKey("category_id_source")
	txOriginalAmount       = mapKey("original_amount")
	txPendingTransactionID = mapKey("pending_transaction_id")
	txUserReviewed         = mapKey("user_reviewed")
	txPlaidDeleted         = mapKey("plaid_deleted")
	txPaymentMethod        = mapKey("payment_method")
	txPaymentProcessor     = mapKey("payment_processor")
	txAddress              = mapKey("address")
	txPostalCode           = mapKey("postal_code")
	txCountry              = mapKey("country")
	txLat                  = mapKey("lat")
	txLon                  = mapKey("lon")
	txTransactionType      = mapKey("plaid_transaction_type")
	txIsAmazon             = mapKey("is_amazon")
	txReferenceNumber      = mapKey("reference_number")
)

// Account patterns.
var (
	balanceAnchor    = []byte("current_balance")
	accountSignature = [][]byte{[]byte("/accounts/")}

	accName             = mapKey("name")
	accOfficialName     = []byte("official_name")
	accType             = mapKey("type")
	accSubtype          = []byte("subtype")
	accMask             = mapKey("mask")
	accInstitutionName  = []byte("institution_name")
	accAccountID        = []byte("account_id")
	accAvailableBalance = mapKey("available_balance")
	accInstitutionID    = mapKey("institution_id")
	accItemID           = mapKey("item_id")
	accCurrency         = mapKey("iso_currency_code")
)
