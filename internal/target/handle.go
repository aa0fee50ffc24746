package target

import "sync"

// Handle is the process-wide access point to the Controller. Any number of
// callers may hold shared access at once; exclusive access is only needed to
// reconfigure the controller. Token counts change without either lock.
type Handle struct {
	mu sync.RWMutex
	c  *Controller
}

// NewHandle wraps c. The composition root constructs one Handle and passes it
// to every component that needs the target.
func NewHandle(c *Controller) *Handle {
	return &Handle{c: c}
}

// Acquire takes shared access. Release the returned view as soon as the
// queries are done; never hold it while draining a stream.
func (h *Handle) Acquire() *Shared {
	h.mu.RLock()
	return &Shared{h: h, c: h.c}
}

// Update runs fn with exclusive access to the controller.
func (h *Handle) Update(fn func(c *Controller) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return fn(h.c)
}

// Shared is a read view of the controller held under the handle's shared lock.
type Shared struct {
	h    *Handle
	c    *Controller
	once sync.Once
}

// Release drops shared access. It is safe to call more than once.
func (s *Shared) Release() {
	s.once.Do(s.h.mu.RUnlock)
}

func (s *Shared) Path() string                                { return s.c.Path() }
func (s *Shared) Mode() Mode                                  { return s.c.Mode() }
func (s *Shared) Size() uint64                                { return s.c.Size() }
func (s *Shared) IsWriting() bool                             { return s.c.IsWriting() }
func (s *Shared) ReadingCount() int                           { return s.c.ReadingCount() }
func (s *Shared) IsMounted() bool                             { return s.c.IsMounted() }
func (s *Shared) Exists() (bool, error)                       { return s.c.Exists() }
func (s *Shared) GetReader(seek *Seek) (*StreamReader, error) { return s.c.GetReader(seek) }
func (s *Shared) GetWriter() (*StreamWriter, error)           { return s.c.GetWriter() }
