package keypath

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Zdjęcie Łódź (1).JPG", "zdjecie-lodz-1.jpg"},
		{"  Faktura   VAT 2024.pdf ", "faktura-vat-2024.pdf"},
		{"straße__plan..v2.dwg", "strasse_plan.v2.dwg"},
		{"---weird---name---.txt", "weird-name.txt"},
		{"ĐÆØ.png", "daeo.png"},
		{"???", "file"},
		{".env", "file.env"},
		{"no-extension", "no-extension"},
		{"archive.TAR.GZ", "archive.tar.gz"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, SanitizeFilename(tc.in))
		})
	}
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "jan-kowalski-sp-z-o-o", Slugify("Jan Kowalski Sp. z o.o."))
	assert.Equal(t, "zolta-lodz", Slugify("Żółta łódź"))
	assert.Equal(t, "", Slugify("!!!"))
}
