// Package fragment abstracts the navigation target's fragment identifier,
// which the implicit grant uses to carry the access token back across the
// provider redirect. The fragment is never sent to servers, so it is the
// one place a token can travel without leaking into logs or referrers.
//
// The Navigator interface stands in for the browsing-context location; in a
// non-browser host the Memory implementation plays the same role.
package fragment

import "net/url"

// Navigator is the injected collaborator through which the session
// controller reads redirect results and initiates the authorization
// redirect. Treating the location as an interface rather than ambient
// global state keeps it fakeable in tests.
type Navigator interface {
	// Fragment returns the current fragment identifier without the
	// leading "#", or "" when none is present.
	Fragment() string

	// ClearFragment removes the fragment from the navigation target.
	// Called after a token is committed so the credential cannot leak
	// via copy/paste, history, or referrer.
	ClearFragment()

	// Navigate points the browsing context at the given URL.
	Navigate(url string)
}

// Values is a flat view of fragment parameters. Unlike url.Values it keeps
// a single value per key; providers send each redirect parameter once.
type Values map[string]string

// Get returns the value for a key, or "" when absent.
func (v Values) Get(key string) string {
	return v[key]
}

// Parse decodes a fragment identifier of the form "a=1&b=2" into Values.
// A leading "#" is tolerated. Keys whose value is empty are dropped: a
// provider that leaves the key but omits the value is treated the same as
// one that omits the key entirely. Undecodable input yields empty Values.
func Parse(fragment string) Values {
	if len(fragment) > 0 && fragment[0] == '#' {
		fragment = fragment[1:]
	}
	parsed, err := url.ParseQuery(fragment)
	if err != nil {
		return Values{}
	}
	values := make(Values, len(parsed))
	for key := range parsed {
		if v := parsed.Get(key); v != "" {
			values[key] = v
		}
	}
	return values
}
