package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/SC-Dawoony/ad-network-hub-sub000/errortypes"
)

func TestPackageName(t *testing.T) {
	for _, name := range []string{"com.example.app", "com.example_2.sky_runner", "io.dev.a1.b2"} {
		assert.NoError(t, PackageName(name), name)
	}
	for _, name := range []string{"", "com", "Com.Example.App", "com..app", "1com.example", "com.example.", ".com.example"} {
		err := PackageName(name)
		assert.Error(t, err, name)
		assert.Equal(t, errortypes.BadInputErrorCode, errortypes.ReadCode(err), name)
	}
}

func TestStoreURL(t *testing.T) {
	assert.NoError(t, StoreURL(""))
	assert.NoError(t, StoreURL("https://play.google.com/store/apps/details?id=com.example.app"))
	assert.NoError(t, StoreURL("http://apps.apple.com/us/app/sky/id1234567890"))

	for _, url := range []string{"ftp://example.com/app", "play.google.com/store", "https://"} {
		assert.Error(t, StoreURL(url), url)
	}
}

func TestDisplayNames(t *testing.T) {
	assert.NoError(t, AppName("Sky Runner"))
	assert.NoError(t, UnitName(strings.Repeat("a", 100)))

	assert.Error(t, AppName(""))
	assert.Error(t, AppName("   "))
	assert.Error(t, UnitName(strings.Repeat("a", 101)))

	err := AppName("")
	assert.Equal(t, errortypes.BadInputErrorCode, errortypes.ReadCode(err))
	assert.Contains(t, err.Error(), "app name")
}
