package cover

import (
	"context"
	"fmt"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/somfycul/rollingcode"
	"github.com/shimmeringbee/somfycul/rts"
	"github.com/shimmeringbee/somfycul/state"
	"github.com/shimmeringbee/somfycul/transport"
	"sync"
	"time"
)

// Settle is added to open and close deadlines, so a cover already at its end stop still waits
// for the motor.
const Settle = 1 * time.Second

// assumedPosition is where a cover moving from an unknown position is taken to have started.
const assumedPosition = 50

var _ Device = (*Controller)(nil)

// Controller drives a single RTS cover and estimates its position from travel time. Command
// handlers and deadline completions are serialised by lock.
type Controller struct {
	info      Info
	link      transport.Link
	store     *rollingcode.Store
	gateway   state.Gateway
	publisher EventPublisher
	logger    logwrap.Logger
	clock     Clock

	lock       sync.Mutex
	motion     Motion
	position   *int
	base       *int
	startedAt  time.Time
	timer      Timer
	generation uint64
}

func NewController(info Info, link transport.Link, store *rollingcode.Store, gateway state.Gateway, publisher EventPublisher, logger logwrap.Logger) *Controller {
	return &Controller{
		info:      info,
		link:      link,
		store:     store,
		gateway:   gateway,
		publisher: publisher,
		logger:    logger,
		clock:     SystemClock,
	}
}

func (c *Controller) Identifier() string {
	return c.info.Address
}

func (c *Controller) Info() Info {
	return c.info
}

func (c *Controller) Status() Status {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.status()
}

// Load replaces the rolling state and position with the persisted record for this cover, if one
// exists.
func (c *Controller) Load(ctx context.Context) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.load(ctx)
}

// Reload re-reads the persisted record. A cover in motion keeps its deadline and takes only the
// rolling state, the position is applied while idle.
func (c *Controller) Reload(ctx context.Context) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	r, found, err := c.read(ctx)
	if err != nil {
		return err
	}

	if found {
		c.store.Seed(c.info.Address, r.Rolling)

		if c.motion == Idle {
			c.position = copyPosition(r.Position)
		}
	}

	c.publish()
	return nil
}

func (c *Controller) Open(ctx context.Context) error {
	return c.travel(ctx, Opening)
}

func (c *Controller) Close(ctx context.Context) error {
	return c.travel(ctx, Closing)
}

func (c *Controller) travel(ctx context.Context, m Motion) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	frame, err := c.encode(c.command(m))
	if err != nil {
		return err
	}

	end := 0
	if m == Opening {
		end = 100
	}

	c.resolve()
	c.send(ctx, frame)

	if !c.info.Travel.Present() {
		c.position = &end
	} else {
		full := c.info.Travel.full(m)
		timeout := full + Settle

		if c.position != nil {
			remaining := *c.position
			if m == Opening {
				remaining = 100 - *c.position
			}

			timeout = full*time.Duration(remaining)/100 + Settle
		}

		c.logger.LogDebug(ctx, "Cover set in motion.", logwrap.Datum("address", c.info.Address), logwrap.Datum("motion", m.String()), logwrap.Datum("timeout", timeout.String()))
		c.begin(m, c.position, end, false, timeout)
	}

	c.persist(ctx)
	c.publish()
	return nil
}

// Stop always transmits, a cover in motion is settled at its interpolated position.
func (c *Controller) Stop(ctx context.Context) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	frame, err := c.encode(rts.Stop)
	if err != nil {
		return err
	}

	c.resolve()
	c.send(ctx, frame)

	c.persist(ctx)
	c.publish()
	return nil
}

func (c *Controller) SetPosition(ctx context.Context, target int) error {
	if target < 0 || target > 100 {
		return fmt.Errorf("%w: %d", ErrInvalidPosition, target)
	}

	if !c.info.Travel.Present() {
		return ErrPositionUnsupported
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	moving := c.motion != Idle

	current := 0
	if p := c.estimate(); p != nil {
		current = *p
	} else if moving {
		current = c.interpolate(assumedPosition)
	}

	if target == current && !moving {
		c.logger.LogDebug(ctx, "Cover already at requested position, nothing to transmit.", logwrap.Datum("address", c.info.Address), logwrap.Datum("position", target))
		return nil
	}

	var m Motion
	cmd := rts.Stop

	if target > current {
		m = Opening
		cmd = c.command(m)
	} else if target < current {
		m = Closing
		cmd = c.command(m)
	}

	frame, err := c.encode(cmd)
	if err != nil {
		return err
	}

	c.resolve()
	c.send(ctx, frame)

	if m == Idle {
		c.position = &target
	} else {
		distance := target - current
		if distance < 0 {
			distance = -distance
		}

		timeout := c.info.Travel.full(m) * time.Duration(distance) / 100
		base := current

		c.logger.LogDebug(ctx, "Cover moving to position.", logwrap.Datum("address", c.info.Address), logwrap.Datum("target", target), logwrap.Datum("timeout", timeout.String()))
		c.begin(m, &base, target, target != 0 && target != 100, timeout)
	}

	c.persist(ctx)
	c.publish()
	return nil
}

// Prog transmits the pairing command, motion is unaffected.
func (c *Controller) Prog(ctx context.Context) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	frame, err := c.encode(rts.Prog)
	if err != nil {
		return err
	}

	c.send(ctx, frame)

	c.persist(ctx)
	c.publish()
	return nil
}

func (c *Controller) load(ctx context.Context) error {
	r, found, err := c.read(ctx)
	if err != nil || !found {
		return err
	}

	c.store.Seed(c.info.Address, r.Rolling)
	c.position = copyPosition(r.Position)
	return nil
}

func (c *Controller) read(ctx context.Context) (state.Record, bool, error) {
	r, found, err := c.gateway.Load(ctx, c.info.Address)
	if err != nil {
		return state.Record{}, false, fmt.Errorf("failed to load state of cover '%s': %w", c.info.Address, err)
	}

	return r, found, nil
}

// command selects the frame for a logical motion, swapping direction for reversed motors.
func (c *Controller) command(m Motion) rts.Command {
	opening := m == Opening
	if c.info.Reversed {
		opening = !opening
	}

	if opening {
		return rts.Up
	}

	return rts.Down
}

func (c *Controller) encode(cmd rts.Command) ([]byte, error) {
	rolling := c.store.Current(c.info.Address)
	return rts.Encode(cmd, rolling.Key, rolling.Code, c.info.Address)
}

// send hands frame to the link and advances the rolling state whatever the link reports, the
// receiver may have heard the frame regardless.
func (c *Controller) send(ctx context.Context, frame []byte) {
	if err := c.link.Send(frame); err != nil {
		c.logger.LogError(ctx, "Failed to transmit frame.", logwrap.Datum("address", c.info.Address), logwrap.Err(err))
	}

	rolling := c.store.Advance(c.info.Address)
	c.logger.LogTrace(ctx, "Rolling state advanced.", logwrap.Datum("address", c.info.Address), logwrap.Datum("key", rolling.Key), logwrap.Datum("code", rolling.Code))
}

func (c *Controller) persist(ctx context.Context) {
	r := state.Record{
		Rolling:  c.store.Current(c.info.Address),
		Position: copyPosition(c.position),
	}

	if err := c.gateway.Save(ctx, c.info.Address, r); err != nil {
		c.logger.LogError(ctx, "Failed to persist cover state.", logwrap.Datum("address", c.info.Address), logwrap.Err(err))
	}
}

func (c *Controller) publish() {
	c.publisher.Publish(Update{Identifier: c.info.Address, Status: c.status()})
}

func (c *Controller) status() Status {
	rolling := c.store.Current(c.info.Address)

	return Status{
		Motion:   c.motion,
		Position: copyPosition(c.position),
		Key:      rolling.Key,
		Code:     rolling.Code,
	}
}

// begin installs the only pending deadline of the cover, superseded deadlines see a stale
// generation and do nothing.
func (c *Controller) begin(m Motion, base *int, end int, stop bool, timeout time.Duration) {
	c.motion = m
	c.base = copyPosition(base)
	c.startedAt = c.clock.Now()

	c.generation++
	generation := c.generation

	c.timer = c.clock.AfterFunc(timeout, func() {
		c.complete(generation, end, stop)
	})
}

func (c *Controller) complete(generation uint64, end int, stop bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if generation != c.generation || c.motion == Idle {
		return
	}

	ctx := context.Background()
	c.timer = nil

	if stop {
		if frame, err := c.encode(rts.Stop); err != nil {
			c.logger.LogError(ctx, "Failed to encode stop at deadline.", logwrap.Datum("address", c.info.Address), logwrap.Err(err))
		} else {
			c.send(ctx, frame)
		}
	}

	c.motion = Idle
	c.base = nil
	c.position = &end

	c.logger.LogDebug(ctx, "Cover reached end of travel.", logwrap.Datum("address", c.info.Address), logwrap.Datum("position", end))

	c.persist(ctx)
	c.publish()
}

func (c *Controller) cancel() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}

	c.generation++
}

// resolve cancels any pending deadline and settles a cover in motion at its estimated position.
func (c *Controller) resolve() {
	if c.motion == Idle {
		return
	}

	c.position = c.estimate()
	c.cancel()
	c.motion = Idle
	c.base = nil
}

// estimate interpolates the position of the cover from the time spent in motion, nil if unknown.
func (c *Controller) estimate() *int {
	if c.motion == Idle {
		return copyPosition(c.position)
	}

	var p int

	if c.base != nil {
		p = c.interpolate(*c.base)
	} else if c.info.LegacyStopEstimate {
		p = c.interpolate(assumedPosition)
	} else {
		return nil
	}

	return &p
}

func (c *Controller) interpolate(base int) int {
	elapsed := c.clock.Now().Sub(c.startedAt)
	delta := int(elapsed * 100 / c.info.Travel.full(c.motion))

	if c.motion == Closing {
		delta = -delta
	}

	return clamp(base + delta)
}

func clamp(p int) int {
	if p < 0 {
		return 0
	} else if p > 100 {
		return 100
	}

	return p
}

func copyPosition(p *int) *int {
	if p == nil {
		return nil
	}

	v := *p
	return &v
}
