// CLAUDE:SUMMARY Intercepts and blocks configured resource types (images, fonts, media, stylesheets) on Rod pages.
package browser

import (
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Config names accepted in resource_blocking, mapped to the CDP resource
// type they suppress. Blocking images and fonts shaves seconds off a run
// against asset-heavy explorer builds without touching the DOM under test.
var blockableTypes = map[string]string{
	"images":      "image",
	"fonts":       "font",
	"media":       "media",
	"stylesheets": "stylesheet",
}

// applyResourceBlocking hijacks page requests and fails those whose CDP
// resource type matches a blocked config name. Unknown names match the raw
// resource type directly.
func applyResourceBlocking(page *rod.Page, names []string) error {
	blocked := make(map[string]bool, len(names))
	for _, name := range names {
		key := strings.ToLower(name)
		if cdp, ok := blockableTypes[key]; ok {
			key = cdp
		}
		blocked[key] = true
	}

	router := page.HijackRequests()
	router.MustAdd("*", func(ctx *rod.Hijack) {
		if blocked[strings.ToLower(string(ctx.Request.Type()))] {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		ctx.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()

	return nil
}
