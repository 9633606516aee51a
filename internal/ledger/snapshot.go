package ledger

// State is the persistable view of the ledger store.
type State struct {
	Clients      []Client      `json:"clients"`
	Personnel    []Personnel   `json:"personnel"`
	Transactions []Transaction `json:"transactions"`
	Statistics   []Statistic   `json:"statistics"`
}

// Snapshot copies every ledger collection. Histories are embedded in the
// payer records, so the encoded form round-trips without the log/history
// sharing that exists in memory.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := State{
		Clients:      make([]Client, 0, len(s.clients)),
		Personnel:    make([]Personnel, 0, len(s.personnel)),
		Transactions: make([]Transaction, 0, len(s.log)),
		Statistics:   make([]Statistic, len(s.statistics)),
	}
	for _, c := range s.clients {
		st.Clients = append(st.Clients, *c)
	}
	for _, p := range s.personnel {
		st.Personnel = append(st.Personnel, *p)
	}
	for _, tx := range s.log {
		st.Transactions = append(st.Transactions, *tx)
	}
	copy(st.Statistics, s.statistics)
	return st
}

// Restore replaces the ledger with the given state. The global log is the
// canonical copy: payer histories are rebuilt to reference the same records,
// so the two views cannot diverge afterwards.
func (s *Store) Restore(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log = make([]*Transaction, 0, len(st.Transactions))
	byPayer := make(map[string][]*Transaction)
	for _, tx := range st.Transactions {
		cp := tx
		s.log = append(s.log, &cp)
		byPayer[cp.PayerID] = append(byPayer[cp.PayerID], &cp)
	}

	s.clients = make([]*Client, 0, len(st.Clients))
	s.clientIdx = make(map[string]*Client, len(st.Clients))
	for _, c := range st.Clients {
		cp := c
		cp.History = byPayer[cp.ID]
		s.clients = append(s.clients, &cp)
		s.clientIdx[cp.ID] = &cp
	}

	s.personnel = make([]*Personnel, 0, len(st.Personnel))
	s.personnelIdx = make(map[string]*Personnel, len(st.Personnel))
	for _, p := range st.Personnel {
		cp := p
		cp.History = byPayer[cp.ID]
		s.personnel = append(s.personnel, &cp)
		s.personnelIdx[cp.ID] = &cp
	}

	s.statistics = make([]Statistic, len(st.Statistics))
	copy(s.statistics, st.Statistics)
}
