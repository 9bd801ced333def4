// Package mqtt provides MQTT connectivity for Gray Logic Home.
//
// The core talks to radio bridges (Zigbee, Z-Wave, Wi-Fi plugs) through a
// local Mosquitto broker:
//
//	Gray Logic Home ↔ MQTT Broker ↔ Device Bridges
//
// Child-device commands go out on graylogic/command/{protocol}/{id}; bridges
// report state on graylogic/state/{protocol}/{id}; every table change the
// core makes is relayed on graylogic/core/changes/{table}. The retained
// graylogic/system/status topic carries the core's online status and its
// Last Will.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllDeviceStates(), 1, ingestor.HandleMessage)
//	err = client.PublishJSON(mqtt.Topics{}.DeviceCommand("zigbee", "dev-42"), cmd, false)
//
// TLS should be enabled for any broker reachable beyond the local host.
package mqtt
