package departure

// CarrierStyle is the display descriptor the board uses for a carrier badge.
type CarrierStyle struct {
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

var carrierStyles = map[Carrier]CarrierStyle{
	CarrierRoyalMail:  {Color: "red", Icon: "package"},
	CarrierEVRI:       {Color: "sky", Icon: "truck"},
	CarrierYodel:      {Color: "emerald", Icon: "yodel-logo"},
	CarrierMcBurney:   {Color: "purple", Icon: "anchor"},
	CarrierMontgomery: {Color: "orange", Icon: "building"},
}

var fallbackCarrierStyle = CarrierStyle{Color: "slate", Icon: "truck"}

// StyleFor returns the display descriptor for a carrier. Unrecognized carrier
// values get the fallback descriptor instead of failing.
func StyleFor(c Carrier) CarrierStyle {
	if style, ok := carrierStyles[c]; ok {
		return style
	}
	return fallbackCarrierStyle
}
