package rule

// Registry holds the scan rules known to an engine. Rules are registered at
// process start and iterated in registration order, which keeps dispatch
// deterministic across runs.
type Registry struct {
	passive      map[int]PassiveRule
	passiveOrder []int
	active       map[int]ActiveRule
	activeOrder  []int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		passive: make(map[int]PassiveRule),
		active:  make(map[int]ActiveRule),
	}
}

// RegisterPassive adds a passive rule keyed by its metadata id.
// Re-registering an id replaces the rule but keeps its original position.
func (r *Registry) RegisterPassive(p PassiveRule) {
	id := p.Meta().ID
	if _, exists := r.passive[id]; !exists {
		r.passiveOrder = append(r.passiveOrder, id)
	}
	r.passive[id] = p
}

// RegisterActive adds an active rule keyed by its metadata id.
func (r *Registry) RegisterActive(a ActiveRule) {
	id := a.Meta().ID
	if _, exists := r.active[id]; !exists {
		r.activeOrder = append(r.activeOrder, id)
	}
	r.active[id] = a
}

// Passive returns the passive rules in registration order.
func (r *Registry) Passive() []PassiveRule {
	out := make([]PassiveRule, 0, len(r.passiveOrder))
	for _, id := range r.passiveOrder {
		out = append(out, r.passive[id])
	}
	return out
}

// Active returns the active rules in registration order.
func (r *Registry) Active() []ActiveRule {
	out := make([]ActiveRule, 0, len(r.activeOrder))
	for _, id := range r.activeOrder {
		out = append(out, r.active[id])
	}
	return out
}

// PassiveByID returns the passive rule with the given id, or nil.
func (r *Registry) PassiveByID(id int) PassiveRule {
	return r.passive[id]
}

// ActiveByID returns the active rule with the given id, or nil.
func (r *Registry) ActiveByID(id int) ActiveRule {
	return r.active[id]
}

// Count returns the total number of registered rules.
func (r *Registry) Count() int {
	return len(r.passive) + len(r.active)
}
