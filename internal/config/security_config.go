// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
)

// EndpointSecurityConfig maps route names to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	"Health": SecurityPublic,

	// Cart - Access Protected
	"GetCart":     SecurityAccess,
	"AddCartItem": SecurityAccess,
	"RemoveItems": SecurityAccess,
	"SetItemMode": SecurityAccess,
	"ClearCart":   SecurityAccess,
	"Logout":      SecurityAccess,

	// Checkout - Access Protected
	"StashCheckoutHints": SecurityAccess,
	"PaymentReturn":      SecurityAccess,
}

// GetSecurityLevel returns the security level for a route. Unknown routes
// require an access token.
func GetSecurityLevel(routeName string) SecurityLevel {
	if level, ok := EndpointSecurityConfig[routeName]; ok {
		return level
	}
	return SecurityAccess
}
