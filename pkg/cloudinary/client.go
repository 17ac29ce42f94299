package cloudinary

import (
	"github.com/cloudinary/cloudinary-go/v2"
)

// New builds a client from url, or from CLOUDINARY_URL in the environment
// when url is empty.
func New(url string) (*cloudinary.Cloudinary, error) {
	if url == "" {
		return cloudinary.New()
	}
	return cloudinary.NewFromURL(url)
}
