package vk

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	apperrors "vkbackup/pkg/errors"
)

const (
	// MethodProfileInfo is the cheap authenticated call used to check a token
	MethodProfileInfo = "account.getProfileInfo"

	// MethodPhotosGet lists photos of an album
	MethodPhotosGet = "photos.get"

	// ProfileAlbum is the album id of a user's profile pictures
	ProfileAlbum = "profile"

	// DefaultPhotoLimit is used when a non-positive limit is requested
	DefaultPhotoLimit = 5

	// MaxPhotoLimit is the largest count photos.get returns in one call
	MaxPhotoLimit = 1000
)

// VK error codes the client distinguishes
const (
	ErrCodeAuthFailed     = 5
	ErrCodeTooManyPerSec  = 6
	ErrCodeAccessDenied   = 15
	ErrCodePrivateProfile = 30
)

var ownerIDPattern = regexp.MustCompile(`^\d+$`)

// methodURL builds the full request URL for a VK method call
func methodURL(baseURL, method string, params url.Values) string {
	return strings.TrimRight(baseURL, "/") + "/" + method + "?" + params.Encode()
}

// photosParams returns the query of a profile-album photos.get call
func photosParams(ownerID string, limit int) url.Values {
	params := url.Values{}
	params.Set("owner_id", ownerID)
	params.Set("album_id", ProfileAlbum)
	params.Set("extended", "1")
	params.Set("photo_sizes", "1")
	params.Set("count", strconv.Itoa(ClampLimit(limit)))
	return params
}

// ClampLimit bounds a requested photo count to what one call can return
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultPhotoLimit
	case limit > MaxPhotoLimit:
		return MaxPhotoLimit
	default:
		return limit
	}
}

// IsValidOwnerID reports whether id is a numeric VK user id
func IsValidOwnerID(id string) bool {
	return ownerIDPattern.MatchString(id)
}

// NormalizeOwnerID accepts the forms users paste (53688675, id53688675,
// @id53688675, https://vk.com/id53688675) and returns the bare numeric id.
// Screen names cannot be resolved without an extra call and are rejected.
func NormalizeOwnerID(input string) (string, error) {
	id := strings.TrimSpace(input)
	for _, prefix := range []string{"https://", "http://", "m.vk.com/", "vk.com/", "@", "id"} {
		id = strings.TrimPrefix(id, prefix)
	}
	id = strings.TrimSuffix(id, "/")

	if !IsValidOwnerID(id) {
		return "", apperrors.Newf(apperrors.ErrorTypeInvalidInput,
			"invalid VK user id %q: expected digits, id<digits> or a vk.com/id<digits> link", input)
	}
	return id, nil
}
