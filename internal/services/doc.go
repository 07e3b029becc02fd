// Package services fetches remote or local resources for the player.
//
// # APIService
//
// [APIService] wraps an [http.Client] with an optional base URL. [APIService.Fetch]
// resolves a reference that is either an absolute http(s) URL, a path relative to the
// base URL, or a local file path, and returns its bytes. Non-2xx responses are errors
// wrapping [shared.ErrServiceUnavailable].
//
// # Manifest
//
// The audio manifest maps track indices to audio references:
//
//	{"tracks": {"1": "https://cdn.example.com/01.m4a", "2": "assets/music/02.m4a"}}
//
// [ManifestService.Load] never fails: an unreachable or malformed manifest is logged and
// an empty [Manifest] is returned so navigation keeps working without audio.
package services
