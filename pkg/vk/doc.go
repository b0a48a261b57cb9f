// Package vk is a minimal client for the VK API methods the backup needs:
// token validation and listing a user's profile photos.
//
//	client := vk.NewClientFromConfig(cfg, log)
//	if err := client.ValidateToken(ctx); err != nil {
//	    // errors.TypeOf(err) is auth, transport or api
//	}
//	photos, err := client.FetchProfilePhotos(ctx, "53688675", 5)
//
// VK returns HTTP 200 for most faults and puts an error object in the body;
// error code 5 is reported as an auth error, every other code as an api
// error. Calls are spaced by a sliding-window limiter and transport
// failures are retried according to the configured policy.
package vk
