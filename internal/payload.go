package internal

import (
	"math/rand"
	"sync"
	"time"

	"github.com/digineo/go-logwrap"
)

var (
	Logger = &logwrap.Instance{}

	// SetLogger allows updating the Logger. For details, see
	// "github.com/digineo/go-logwrap".Instance.SetLogger.
	SetLogger = Logger.SetLogger

	// rand.Seed is deprecated, keep a package-local RNG instead
	rng   = rand.New(rand.NewSource(time.Now().UnixNano()))
	rngMu sync.Mutex
)

// Payload represents additional data appended to outgoing ICMP Echo
// Requests.
type Payload []byte

// Resize will assign a new payload of the given size to p.
func (p *Payload) Resize(size uint16) {
	buf := make([]byte, size)

	rngMu.Lock()
	_, err := rng.Read(buf)
	rngMu.Unlock()

	if err != nil {
		Logger.Errorf("error resizing payload: %v", err)
		return
	}
	*p = Payload(buf)
}
