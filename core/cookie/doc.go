// Package cookie provides HTTP cookie management with secure defaults.
//
// Every cookie written by a Manager has Path=/, HttpOnly and SameSite=Lax.
// Domain, Max-Age and Secure are adjustable: options passed to New apply to all
// cookies, options passed to Set apply to one.
//
//	m := cookie.New(cookie.WithSecure(true))
//
//	if err := m.Set(w, "rpg_session", token, cookie.WithMaxAge(604800)); err != nil {
//		return err
//	}
//
//	token, err := m.Get(r, "rpg_session")
//	if errors.Is(err, cookie.ErrCookieNotFound) {
//		// no cookie yet
//	}
//
//	m.Delete(w, "rpg_session")
//
// Set refuses cookies whose serialized header exceeds the manager's maximum size
// (4096 bytes by default) with ErrCookieTooLarge, and cookies net/http cannot
// serialize with ErrInvalidFormat.
//
// A Domain given to New scopes every cookie of the manager, including the
// removal header written by Delete:
//
//	m := cookie.New(cookie.WithDomain("table.example"))
package cookie
