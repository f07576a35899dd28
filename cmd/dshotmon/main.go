package main

import (
	"flag"
	"log"
	"os"
	"reflect"
	"strings"

	"github.com/fatih/color"

	"github.com/robotalks/dshot.go/pkg/l1/comm/mqtt"
	"github.com/robotalks/dshot.go/pkg/l1/link"
	"github.com/robotalks/dshot.go/pkg/l1/msgs"
)

var (
	mqttURL = "mqtt://localhost:1883/dshot/"
	filter  = "#"
	quiet   bool
)

func init() {
	if val := os.Getenv("DSHOT_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&filter, "topic", filter, "Topic filter under the prefix.")
	flag.BoolVar(&quiet, "q", quiet, "Hide telemetry reports without reply.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)
	log.SetOutput(color.Output)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}

	q.Sub(filter, mqtt.Handler(func(topic string, payload []byte) {
		if strings.HasSuffix(topic, "/"+mqtt.MetaTopic) {
			log.Printf("%s: %s", topic, string(payload))
			return
		}
		typed, err := msgs.DecodeTyped(payload)
		if err != nil {
			log.Printf("%s: bad message: %v", topic, err)
			return
		}
		msg, err := typed.Decode()
		if err != nil {
			log.Printf("%s: decode error: (type_id=%x) %v", topic, typed.TypeId, err)
			return
		}
		if report, ok := msg.(*msgs.TelemetryReport); ok {
			if !quiet || report.Present {
				log.Printf("%s: %s", topic, colorize(report))
			}
			return
		}
		log.Printf("%s: [%s #%d] %s", topic,
			reflect.Indirect(reflect.ValueOf(msg)).Type().Name(), typed.Sequence,
			msg.(msgs.SerializableMessage).Serializable().String())
	}))
	<-(chan struct{})(nil)
}

func colorize(report *msgs.TelemetryReport) string {
	str := report.Report().String()
	switch {
	case !report.Present:
		return color.HiRedString(str)
	case report.State == link.Streaming.String():
		return color.HiGreenString(str)
	}
	return color.YellowString(str)
}
