package services

import (
	"fmt"
	"log"
	"sync"
	"time"

	"visa-consult-api/utils"
)

// MailFunc is the outbound transport the notifier hands rendered messages
// to. Production wires config.SMTPConfig.SendMail; tests wire a fake.
type MailFunc func(to []string, subject, html string) error

// Notification is one queued best-effort email.
type Notification struct {
	To       []string
	Subject  string
	Template string
	Data     map[string]interface{}
}

// Notifier renders named templates and delivers them off the request path.
// Delivery failures are retried a bounded number of times and then logged;
// they never affect the submission that triggered them.
type Notifier struct {
	send       MailFunc
	queue      chan Notification
	wg         sync.WaitGroup
	maxRetries int
	retryDelay time.Duration

	mu    sync.RWMutex
	cache map[string]*renderedTemplate
}

// NewNotifier starts the background delivery worker. queueSize bounds the
// number of pending notifications; when the queue is full new ones are
// dropped with a log line rather than blocking a request.
func NewNotifier(send MailFunc, queueSize int) *Notifier {
	if queueSize <= 0 {
		queueSize = 64
	}
	n := &Notifier{
		send:       send,
		queue:      make(chan Notification, queueSize),
		maxRetries: 3,
		retryDelay: 2 * time.Second,
		cache:      make(map[string]*renderedTemplate),
	}
	n.wg.Add(1)
	go n.run()
	return n
}

// Enqueue hands a notification to the worker. It never blocks and never
// returns an error: notification is best-effort by contract.
func (n *Notifier) Enqueue(note Notification) {
	// Recipient addresses come from stored records; filter rather than
	// hand the transport something unroutable.
	valid := make([]string, 0, len(note.To))
	for _, addr := range note.To {
		if utils.ValidateEmail(addr) {
			valid = append(valid, addr)
		} else {
			log.Printf("notifier: skipping invalid recipient %q", addr)
		}
	}
	note.To = valid
	if len(note.To) == 0 {
		return
	}
	select {
	case n.queue <- note:
	default:
		log.Printf("notifier: queue full, dropping %q to %v", note.Template, note.To)
	}
}

// Close drains the queue and stops the worker.
func (n *Notifier) Close() {
	close(n.queue)
	n.wg.Wait()
}

func (n *Notifier) run() {
	defer n.wg.Done()
	for note := range n.queue {
		n.deliver(note)
	}
}

func (n *Notifier) deliver(note Notification) {
	html, err := n.Render(note.Template, note.Data)
	if err != nil {
		log.Printf("notifier: render %q failed: %v", note.Template, err)
		return
	}

	for attempt := 1; attempt <= n.maxRetries; attempt++ {
		if err = n.send(note.To, note.Subject, html); err == nil {
			return
		}
		if attempt < n.maxRetries {
			time.Sleep(n.retryDelay)
		}
	}
	log.Printf("notifier: giving up on %q to %v after %d attempts: %v",
		note.Template, note.To, n.maxRetries, err)
}

// LogOnlyMail is the transport used when SMTP is not configured: it logs
// the message instead of sending it, so development runs still show what
// would have gone out.
func LogOnlyMail(to []string, subject, _ string) error {
	log.Printf("[MAIL] would send %q to %v", subject, to)
	return nil
}

var _ MailFunc = LogOnlyMail

func init() {
	// Sanity-check the built-in template set at startup so a bad edit
	// fails fast instead of at first delivery.
	for name := range builtinTemplates {
		if _, err := parseTemplate(name); err != nil {
			panic(fmt.Sprintf("notifier: built-in template %q: %v", name, err))
		}
	}
}
