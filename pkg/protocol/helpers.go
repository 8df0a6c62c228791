package protocol

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewEmotionsMessage creates an emotions message
func NewEmotionsMessage(seq uint64, faces []FaceData) (*Message, error) {
	if faces == nil {
		faces = []FaceData{}
	}
	return NewMessage(TypeEmotions, EmotionsData{
		Seq:   seq,
		Faces: faces,
	})
}

// NewEmotionChangedMessage creates an emotion change message
func NewEmotionChangedMessage(from, to string, confidence float64, at int64) (*Message, error) {
	return NewMessage(TypeEmotionChanged, EmotionChangedData{
		From:       from,
		To:         to,
		Confidence: confidence,
		At:         at,
	})
}

// NewStatusMessage creates a status message
func NewStatusMessage(status StatusData) (*Message, error) {
	return NewMessage(TypeStatus, status)
}

// NewPingMessage creates a ping message
func NewPingMessage(id string, ts int64) (*Message, error) {
	return NewMessage(TypePing, PingData{
		ID:        id,
		Timestamp: ts,
	})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetEmotionsData extracts emotions data from a message
func (m *Message) GetEmotionsData() (*EmotionsData, error) {
	var data EmotionsData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetEmotionChangedData extracts emotion change data from a message
func (m *Message) GetEmotionChangedData() (*EmotionChangedData, error) {
	var data EmotionChangedData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetStatusData extracts status data from a message
func (m *Message) GetStatusData() (*StatusData, error) {
	var data StatusData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPongData extracts pong data from a message
func (m *Message) GetPongData() (*PongData, error) {
	var data PongData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
