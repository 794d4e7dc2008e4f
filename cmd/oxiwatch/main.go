package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/robotalks/pulseox/pkg/cli/sh"
	"github.com/robotalks/pulseox/pkg/remote/comm/mqtt"
	"github.com/robotalks/pulseox/pkg/remote/env/device"
	"github.com/robotalks/pulseox/pkg/remote/msgs"
)

var (
	registryURL = "mqtt://localhost:1883/pulseox/"
	deviceID    = "+"
	showCmds    bool
)

func init() {
	if val := os.Getenv("PULSEOX_REGISTRY_URL"); val != "" {
		registryURL = val
	}
	flag.StringVar(&registryURL, "registry", registryURL, "MQTT registry URL.")
	flag.StringVar(&deviceID, "id", deviceID, "Only watch the oximeter with this ID.")
	flag.BoolVar(&showCmds, "cmds", showCmds, "Also print commands and replies.")
}

// describe turns a registry message into a line, false to skip it.
func describe(topic string, payload []byte) (string, bool) {
	items := strings.Split(topic, "/")
	if len(items) != 3 || items[0] != device.DeviceType {
		return "", false
	}
	id, kind := items[1], items[2]
	switch kind {
	case "meta":
		if len(payload) == 0 {
			return id + " offline", true
		}
		info, ok := mqtt.ParseMeta(topic, payload)
		if !ok {
			return fmt.Sprintf("%s: bad meta %q", id, payload), true
		}
		return "online " + sh.FormatInfo(info), true
	case "msg", "cmd":
	default:
		return "", false
	}
	typed, err := msgs.DecodeTyped(payload)
	if err != nil {
		return fmt.Sprintf("%s: bad message: %v", id, err), true
	}
	if !typed.IsEvent() && !showCmds {
		return "", false
	}
	msg, err := typed.Decode()
	if err != nil {
		return fmt.Sprintf("%s: decode error: (type_id=%x) %v", id, typed.TypeId, err), true
	}
	dir := ""
	if !typed.IsEvent() {
		dir = map[string]string{"cmd": "<- ", "msg": "-> "}[kind]
	}
	return fmt.Sprintf("%s: %s%s", id, dir, sh.FormatMessage(msg)), true
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(registryURL)
	if err != nil {
		log.Fatalln(err)
	}
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}

	q.Sub(device.DeviceType+"/"+deviceID+"/+", mqtt.Handler(func(topic string, payload []byte) {
		if line, ok := describe(topic, payload); ok {
			log.Println(line)
		}
	}))
	<-(chan struct{})(nil)
}
