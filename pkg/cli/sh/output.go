package sh

import (
	"encoding/json"
	"reflect"
	"sort"
	"strings"

	fx "github.com/robotalks/dshot.go/pkg/framework"
	"github.com/robotalks/dshot.go/pkg/l1"
	"github.com/robotalks/dshot.go/pkg/l1/msgs"
)

// FormatInfo formats a discovered daemon as "TYPE/ID: description [labels]".
func FormatInfo(info l1.ControllerInfo) string {
	var sb strings.Builder
	sb.WriteString(info.Ref.Name())
	if info.Meta.Description != "" {
		sb.WriteString(": ")
		sb.WriteString(info.Meta.Description)
	}
	if len(info.Meta.Labels) > 0 {
		keys := make([]string, 0, len(info.Meta.Labels))
		for k := range info.Meta.Labels {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString(" [")
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(k + "=" + info.Meta.Labels[k])
		}
		sb.WriteByte(']')
	}
	return sb.String()
}

// FormatReply formats a reply for display, or as JSON.
func FormatReply(msg fx.Message, asJSON bool) (string, error) {
	sm, ok := msg.(msgs.SerializableMessage)
	if asJSON {
		var v interface{} = msg
		if ok {
			v = sm.Serializable()
		}
		out, err := json.Marshal(v)
		return string(out), err
	}
	if _, isOK := msg.(*msgs.CommandOK); isOK {
		return "OK", nil
	}
	name := reflect.Indirect(reflect.ValueOf(msg)).Type().Name()
	if !ok {
		return name, nil
	}
	return name + " " + sm.Serializable().String(), nil
}
