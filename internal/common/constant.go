package common

// AccountNamespace is the key under which local storage keeps the map of
// identifier -> encrypted account record.
const AccountNamespace = "oip_account"

// DefaultFiat is used when a payment intent does not name a fiat currency.
const DefaultFiat = "usd"
