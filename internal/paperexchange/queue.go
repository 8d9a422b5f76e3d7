package paperexchange

// queueKey identifies one FIFO queue: a symbol, side and price level.
type queueKey struct {
	symbol uint32
	side   Side
	price  uint32
}

func opposite(side Side) Side {
	if side == Buy {
		return Sell
	}
	return Buy
}

// RegisterQueuePosition attaches queue-position tracking to an already
// resting limit order, recording how much quantity the venue reports as
// ahead of it at registration time. expectedNextSeq, when non-zero, is
// the passive sequence number of the order immediately behind ours — if
// the venue later reports that order filled, ours is proven filled by
// elimination (spec §4.3 confirmation criterion (a)).
func (s *Simulator) RegisterQueuePosition(orderID uint64, aheadQty uint64, expectedNextSeq uint64) bool {
	slot, ok := s.index[orderID]
	if !ok || !s.pending[slot].live {
		return false
	}
	order := &s.pending[slot]
	order.queueAhead = aheadQty
	order.originalAhead = aheadQty
	order.expectedNextSeq = expectedNextSeq
	order.hasExpectedSeq = expectedNextSeq != 0
	s.queues[queueKey{order.symbol, order.side, order.limitPrice}] = aheadQty
	return true
}

// OnTrade drains the opposite-side queue at (symbol, price) by qty and
// returns the ids of our resting orders confirmed filled by this trade
// (spec §4.3 "optional queue-position model"). passiveSeq is the filled
// passive order's venue sequence number, used for elimination-based
// confirmation when known (pass 0 if unavailable).
func (s *Simulator) OnTrade(symbol uint32, price uint32, qty uint32, aggressorSide Side, ts int64, passiveSeq uint64) []uint64 {
	passiveSide := opposite(aggressorSide)
	key := queueKey{symbol, passiveSide, price}

	ahead, tracked := s.queues[key]
	if !tracked {
		return nil
	}
	if uint64(qty) > ahead {
		ahead = 0
	} else {
		ahead -= uint64(qty)
	}
	s.queues[key] = ahead

	var filled []uint64
	for id, slot := range s.index {
		order := &s.pending[slot]
		if !order.live || order.symbol != symbol || order.side != passiveSide || order.limitPrice != price {
			continue
		}

		// Criterion (b): the queue ahead of the order had already fully
		// drained by a prior trade, and this trade's drain reaches the
		// order itself.
		confirmedBySeq := order.hasExpectedSeq && passiveSeq != 0 && passiveSeq == order.expectedNextSeq
		confirmedByDrain := order.queueAhead == 0 && qty > 0

		if order.queueAhead > uint64(qty) {
			order.queueAhead -= uint64(qty)
		} else {
			order.queueAhead = 0
		}

		if confirmedBySeq || confirmedByDrain {
			fill := s.fillPrice(order.side, price)
			comm := s.commission(fill, order.qty)
			slip := slippagePaid(order.side, price, fill, order.qty)
			s.totalSlippage += slip

			s.emit(ExecutionReport{
				OrderID:      id,
				Symbol:       symbol,
				Side:         order.side,
				Type:         Limit,
				Status:       StatusFilled,
				LimitPrice:   order.limitPrice,
				FillPrice:    fill,
				Quantity:     order.qty,
				Commission:   comm,
				SlippagePaid: slip,
				Timestamp:    ts,
			})
			filled = append(filled, id)
			delete(s.index, id)
			delete(s.queues, key)
			s.releaseSlot(slot)
		}
	}
	return filled
}

// FillConfidence classifies a tracked order's estimated fill likelihood
// from how much of its original ahead-quantity has drained (spec §4.3).
// It is purely informational — OnTrade is the only path that emits an
// actual fill.
func (s *Simulator) FillConfidence(orderID uint64) (FillConfidence, bool) {
	slot, ok := s.index[orderID]
	if !ok || !s.pending[slot].live {
		return Unlikely, false
	}
	order := &s.pending[slot]
	if order.originalAhead == 0 || order.queueAhead == 0 {
		return VeryLikely, true
	}
	drained := order.originalAhead - order.queueAhead
	fraction := float64(drained) / float64(order.originalAhead)

	switch {
	case fraction >= 0.90:
		return VeryLikely, true
	case fraction >= 0.50:
		return Likely, true
	case fraction > 0:
		return Possible, true
	default:
		return Unlikely, true
	}
}
