// Package validate holds the payload checks shared by every create
// endpoint, so obviously broken input never reaches a network console.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/asaskevich/govalidator"

	"github.com/SC-Dawoony/ad-network-hub-sub000/errortypes"
)

var packagePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*(\.[a-z][a-z0-9_]*)+$`)

// PackageName checks the reverse-domain Android package format.
func PackageName(name string) error {
	if name == "" {
		return &errortypes.BadInput{Message: "package name is required"}
	}
	if !packagePattern.MatchString(name) {
		return &errortypes.BadInput{
			Message: fmt.Sprintf("package name %q is not of the form com.example.app", name),
		}
	}
	return nil
}

// StoreURL accepts an empty value; store links are optional on most
// networks. Non-empty values must be fetchable http(s) URLs.
func StoreURL(url string) error {
	if url == "" {
		return nil
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return &errortypes.BadInput{Message: "store url must start with http:// or https://"}
	}
	if !govalidator.IsRequestURL(url) {
		return &errortypes.BadInput{Message: fmt.Sprintf("store url %q is not a valid url", url)}
	}
	return nil
}

// AppName checks a display name for app creation.
func AppName(name string) error {
	return displayName("app name", name)
}

// UnitName checks a display name for ad unit creation.
func UnitName(name string) error {
	return displayName("ad unit name", name)
}

func displayName(field, name string) error {
	if strings.TrimSpace(name) == "" {
		return &errortypes.BadInput{Message: field + " is required"}
	}
	if utf8.RuneCountInString(name) > 100 {
		return &errortypes.BadInput{Message: field + " must be at most 100 characters"}
	}
	return nil
}
