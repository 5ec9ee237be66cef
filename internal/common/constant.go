package common

// AuthorizationHeader carries the bearer access token on API requests.
const AuthorizationHeader = "Authorization"

// TokenExpiredCode is the machine-readable error code the server returns when
// an access token is valid but past its expiry; clients react by refreshing.
const TokenExpiredCode = "token_expired"
