package fleet

import "encoding/json"

// BuildDispatch assembles the broadcast message for one order. Aisles are
// emitted in the fixed Aisles order, each at most once, and aisles with no
// items are omitted. The item slices are copied so later ledger or caller
// mutations cannot leak into an in-flight dispatch.
func BuildDispatch(orderID, requestID string, action Action, itemsByAisle map[string][]Item) DispatchMessage {
	msg := DispatchMessage{
		OrderID:   orderID,
		RequestID: requestID,
		Action:    action,
	}
	for _, aisle := range Aisles {
		items := itemsByAisle[aisle]
		if len(items) == 0 {
			continue
		}
		group := AisleGroup{
			Aisle: aisle,
			Items: append([]Item(nil), items...),
		}
		msg.AisleGroups = append(msg.AisleGroups, group)
	}
	return msg
}

// EncodeDispatch serializes a dispatch message into the broadcast payload.
func EncodeDispatch(msg DispatchMessage) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeDispatch parses a broadcast payload back into a dispatch message.
func DecodeDispatch(payload []byte) (DispatchMessage, error) {
	var msg DispatchMessage
	err := json.Unmarshal(payload, &msg)
	return msg, err
}

// ItemsFor returns the items dispatched to the named aisle, or nil when the
// aisle was omitted from this order.
func (m DispatchMessage) ItemsFor(aisle string) []Item {
	for _, group := range m.AisleGroups {
		if group.Aisle == aisle {
			return group.Items
		}
	}
	return nil
}
