package middleware

import (
	"net"
	"strings"

	"github.com/abisalde/marketplace-service/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ClientIPResolver finds the real client address, trusting forwarding
// headers only when the direct peer is a configured proxy.
type ClientIPResolver struct {
	trustedNets []*net.IPNet
}

func NewClientIPResolver(trustedProxies []string) *ClientIPResolver {
	return &ClientIPResolver{trustedNets: parseNetworks(trustedProxies)}
}

func (r *ClientIPResolver) ClientIP(c *fiber.Ctx) string {
	remoteIP := c.IP()
	if r == nil || !r.isTrustedProxy(remoteIP) {
		return remoteIP
	}

	if xff := c.Get(fiber.HeaderXForwardedFor); xff != "" {
		if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
			return first
		}
	}
	if realIP := c.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return remoteIP
}

func (r *ClientIPResolver) isTrustedProxy(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	for _, network := range r.trustedNets {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// SecurityHeaders sets the standard hardening headers on every response.
func SecurityHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		return c.Next()
	}
}

// parseNetworks parses IP addresses and CIDR ranges, skipping invalid entries.
func parseNetworks(cidrs []string) []*net.IPNet {
	var networks []*net.IPNet

	for _, cidr := range cidrs {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}

		if !strings.Contains(cidr, "/") {
			if ip := net.ParseIP(cidr); ip != nil {
				if ip.To4() != nil {
					cidr += "/32"
				} else {
					cidr += "/128"
				}
			}
		}

		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			logger.L().Warn("invalid CIDR range", zap.String("cidr", cidr), zap.Error(err))
			continue
		}
		networks = append(networks, network)
	}

	return networks
}
