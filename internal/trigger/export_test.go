package trigger

var MatchTopic = matchTopic

func (c *Client) AddHandler(topic string, h MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[topic] = h
}

func (c *Client) Deliver(topic string, payload []byte) {
	c.handleMessage(topic, payload)
}
