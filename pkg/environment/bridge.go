// Copyright 2025 Ewout Prangsma
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Author Ewout Prangsma
//

package environment

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/binkynet/PinWorker/pkg/service/bridge"
)

// Supported bridge types
const (
	BridgeAuto        = "auto"
	BridgeRaspberryPi = "rpi"
	BridgeSysfs       = "sysfs"
	BridgeVirtual     = "virtual"
)

// BridgeTypes lists all bridge types accepted by NewBridge.
var BridgeTypes = []string{BridgeAuto, BridgeRaspberryPi, BridgeSysfs, BridgeVirtual}

// ValidateBridgeType returns an error if the given bridge type is unknown.
func ValidateBridgeType(bridgeType string) error {
	for _, x := range BridgeTypes {
		if x == bridgeType {
			return nil
		}
	}
	return errors.Errorf("unknown bridge type '%s' (%s)", bridgeType, strings.Join(BridgeTypes, "|"))
}

// NewBridge creates the bridge of the given type.
// The auto type is resolved using AutoDetectBridgeType.
func NewBridge(log zerolog.Logger, bridgeType string, cfg bridge.Config) (bridge.API, error) {
	if bridgeType == BridgeAuto || bridgeType == "" {
		bridgeType = AutoDetectBridgeType(log)
		log.Info().Str("bridge", bridgeType).Msg("Auto detected bridge type")
	}
	switch bridgeType {
	case BridgeRaspberryPi:
		br, err := bridge.NewRaspberryPiBridge(cfg)
		if err != nil {
			return nil, errors.Wrap(err, "failed to initialize Raspberry Pi bridge")
		}
		return br, nil
	case BridgeSysfs:
		br, err := bridge.NewSysfsBridge(cfg)
		if err != nil {
			return nil, errors.Wrap(err, "failed to initialize sysfs bridge")
		}
		return br, nil
	case BridgeVirtual:
		return bridge.NewVirtualBridge(), nil
	default:
		return nil, ValidateBridgeType(bridgeType)
	}
}

// Describe returns a short human readable description of the given bridge.
func Describe(br bridge.API) string {
	if _, ok := br.(*bridge.VirtualBridge); ok {
		return fmt.Sprintf("virtual bridge with %d pins", br.PinCount())
	}
	return fmt.Sprintf("hardware bridge with %d pins", br.PinCount())
}
