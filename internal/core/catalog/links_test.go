package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchLinksEncodesKeywords(t *testing.T) {
	links := SearchLinks("navy blue floral dress", "dress")

	require.Len(t, links, 4)
	assert.Equal(t, "Amazon.in", links[0].Platform)
	assert.Equal(t, "https://www.amazon.in/s?k=navy+blue+floral+dress", links[0].URL)
	assert.Equal(t, "https://www.flipkart.com/search?q=navy+blue+floral+dress", links[1].URL)
	assert.Equal(t, "https://www.myntra.com/navy+blue+floral+dress", links[2].URL)
	assert.Equal(t, "https://www.ajio.com/search/?text=navy+blue+floral+dress", links[3].URL)
}

func TestSearchLinksAddsNykaaForAccessories(t *testing.T) {
	links := SearchLinks("gold plated earrings", "earring")

	require.Len(t, links, 5)
	assert.Equal(t, "Nykaa Fashion", links[4].Platform)
	assert.Equal(t, "https://www.nykaafashion.com/search/product?q=gold+plated+earrings", links[4].URL)
}

func TestSearchLinksAccessoryMatchIsCaseInsensitive(t *testing.T) {
	links := SearchLinks("leather tote", "Handbag")

	require.Len(t, links, 5)
	assert.Equal(t, "Nykaa Fashion", links[4].Platform)
}

func TestSearchLinksNoNykaaForClothing(t *testing.T) {
	links := SearchLinks("white shirt", "shirt")
	assert.Len(t, links, 4)
}
