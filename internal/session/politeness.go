package session

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/time/rate"
)

// Politeness throttles per-domain visits and honors robots.txt during a
// navigation sweep. Unreachable or malformed robots.txt counts as allowed.
type Politeness struct {
	mu          sync.Mutex
	userAgent   string
	perDomain   time.Duration
	limiters    map[string]*rate.Limiter
	robotsCache map[string]*robotstxt.Group
}

func NewPoliteness(userAgent string, perDomain time.Duration) *Politeness {
	if perDomain <= 0 {
		perDomain = time.Second
	}
	return &Politeness{
		userAgent:   userAgent,
		perDomain:   perDomain,
		limiters:    make(map[string]*rate.Limiter),
		robotsCache: make(map[string]*robotstxt.Group),
	}
}

// Wait blocks until the target's domain limiter allows another visit.
func (p *Politeness) Wait(targetURL string) error {
	u, err := url.Parse(targetURL)
	if err != nil {
		return err
	}
	domain := u.Host

	p.mu.Lock()
	limiter, exists := p.limiters[domain]
	if !exists {
		limiter = rate.NewLimiter(rate.Every(p.perDomain), 1)
		p.limiters[domain] = limiter
	}
	p.mu.Unlock()

	return limiter.Wait(context.Background())
}

// Allowed checks robots.txt for the link, caching per host.
func (p *Politeness) Allowed(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	group, exists := p.robotsCache[u.Host]
	if !exists {
		group = p.fetchGroup(u)
		p.robotsCache[u.Host] = group
	}

	if group == nil {
		return true
	}
	return group.Test(u.Path)
}

func (p *Politeness) fetchGroup(u *url.URL) *robotstxt.Group {
	resp, err := http.Get(u.Scheme + "://" + u.Host + "/robots.txt")
	if err != nil || resp.StatusCode != http.StatusOK {
		if resp != nil {
			resp.Body.Close()
		}
		return nil
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil
	}
	return data.FindGroup(p.userAgent)
}
