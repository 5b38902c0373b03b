/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package models

// BridgeTrade represents a raw trade record as returned by the MT5 bridge
// API, with platform-native field names. Direction is a numeric command code
// (0=buy, 1=sell), Volume is pre-scaling integer lots, and all timestamps
// are unix seconds.
type BridgeTrade struct {
	Ticket     int64   `json:"Ticket"`
	Login      int64   `json:"Login"`
	Symbol     string  `json:"Symbol"`
	Digits     int     `json:"Digits"`
	Cmd        int     `json:"Cmd"`
	Volume     int64   `json:"Volume"`
	OpenTime   int64   `json:"OpenTime"`
	OpenPrice  float64 `json:"OpenPrice"`
	CloseTime  int64   `json:"CloseTime"`
	ClosePrice float64 `json:"ClosePrice"`
	Profit     float64 `json:"Profit"`
	Commission float64 `json:"Commission"`
	Swap       float64 `json:"Swap"`
	Comment    string  `json:"Comment"`
}
