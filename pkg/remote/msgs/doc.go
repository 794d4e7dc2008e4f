// Package msgs provides the device protocol envelope and all message
// schemas exchanged between a pulse oximeter device and remote tools.
//
// Every packet is a protobuf encoded Typed envelope. The type ID
// carries the kind (command or event), the group and the reply bit.
package msgs
