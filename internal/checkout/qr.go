package checkout

import (
	"context"

	"github.com/Skotchmaster/storefront/internal/apiclient"
	"github.com/Skotchmaster/storefront/internal/logging"
)

type QRProvider interface {
	RandomQRIS(ctx context.Context) (string, error)
	BaseURL() string
}

func StaticQR(url string) QRSource {
	return func(context.Context) string { return url }
}

// RandomQR asks the API for a random uploaded QR image and falls back to
// fallback when none is available.
func RandomQR(p QRProvider, fallback string) QRSource {
	return func(ctx context.Context) string {
		u, err := p.RandomQRIS(ctx)
		if err != nil {
			logging.FromContext(ctx).Warn("qris_random_failed", "error", err)
			return fallback
		}
		return apiclient.ImageURL(p.BaseURL(), u)
	}
}
