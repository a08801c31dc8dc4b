package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		expectErr bool
	}{
		{"valid http URL", "http://localhost:8080", false},
		{"valid https URL", "https://polarcraft.example", false},
		{"valid URL with query params", "https://polarcraft.example/studio?module=design&setup=1~S_0_0_0", false},
		{"javascript scheme", "javascript:alert('xss')", true},
		{"file scheme", "file:///etc/passwd", true},
		{"semicolon injection", "http://example.com; rm -rf /", true},
		{"pipe injection", "http://example.com|nc", true},
		{"no host", "http://", true},
		{"newline", "http://example.com\nX-Injected: 1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateShareOrigin(t *testing.T) {
	valid := []string{
		"https://polarcraft.example",
		"http://localhost:5173",
		"https://example.org/polarcraft",
	}
	for _, origin := range valid {
		assert.NoError(t, ValidateShareOrigin(origin), origin)
	}

	invalid := []string{
		"",
		"polarcraft.example",
		"ftp://polarcraft.example",
		"https://polarcraft.example?x=1",
		"https://polarcraft.example#top",
		"https://user:pw@polarcraft.example",
		"https://polarcraft.example/<script>",
	}
	for _, origin := range invalid {
		assert.Error(t, ValidateShareOrigin(origin), origin)
	}
}

func TestValidateOrigin(t *testing.T) {
	allowed := []string{"localhost:8080", "https://polarcraft.example"}

	assert.NoError(t, ValidateOrigin("http://localhost:8080", allowed))
	assert.NoError(t, ValidateOrigin("https://polarcraft.example", allowed))
	assert.Error(t, ValidateOrigin("", allowed))
	assert.Error(t, ValidateOrigin("https://evil.example", allowed))
	assert.Error(t, ValidateOrigin("chrome-extension://abc", allowed))
}

func TestValidateBenchFile(t *testing.T) {
	tests := []struct {
		path      string
		expectErr bool
	}{
		{"benches/malus.yaml", false},
		{"malus.yml", false},
		{"setup.JSON", false},
		{"../outside.yaml", true},
		{"/etc/bench.yaml", true},
		{"bench.txt", true},
		{"bench", true},
		{"bench;rm.yaml", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			err := ValidateBenchFile(tt.path)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func FuzzValidateShareOrigin(f *testing.F) {
	for _, seed := range []string{"https://polarcraft.example", "http://localhost:5173", "javascript:alert(1)", "http://a b"} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, origin string) {
		if ValidateShareOrigin(origin) != nil {
			return
		}
		if ValidateURL(origin) != nil {
			t.Fatalf("accepted origin %q fails URL validation", origin)
		}
	})
}
