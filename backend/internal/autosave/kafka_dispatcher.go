package autosave

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/IBM/sarama"
)

// KafkaDispatcher：本地有界队列 + worker 异步发送 + 有限重试。
// - Enqueue 只负责入队，不阻塞编辑
// - Kafka 短暂不可用时靠队列吸收
// - 队列满时等到 ctx 超时后丢弃
type KafkaDispatcher struct {
	producer sarama.SyncProducer
	topic    string

	queue chan ContentChangedEvent

	// sem 限制并发的 SendMessage 数量
	kafkaSem *SemaphoreControl

	workers     int
	maxRetry    int
	baseBackoff time.Duration
	maxBackoff  time.Duration

	wg        sync.WaitGroup
	closeOnce sync.Once
}

type KafkaDispatcherOptions struct {
	QueueSize   int           `mapstructure:"QueueSize"`
	Workers     int           `mapstructure:"Workers"`
	MaxRetry    int           `mapstructure:"MaxRetry"`
	BaseBackoff time.Duration `mapstructure:"BaseBackoff"`
	MaxBackoff  time.Duration `mapstructure:"MaxBackoff"`
}

func DefaultKafkaDispatcherOptions() KafkaDispatcherOptions {
	return KafkaDispatcherOptions{
		QueueSize:   10_000,
		Workers:     4,
		MaxRetry:    3,
		BaseBackoff: 50 * time.Millisecond,
		MaxBackoff:  1 * time.Second,
	}
}

func NewKafkaDispatcher(producer sarama.SyncProducer, topic string, kafkaSem *SemaphoreControl, opt KafkaDispatcherOptions) *KafkaDispatcher {
	if opt.Workers <= 0 {
		opt.Workers = 1
	}
	d := &KafkaDispatcher{
		producer:    producer,
		topic:       topic,
		queue:       make(chan ContentChangedEvent, opt.QueueSize),
		kafkaSem:    kafkaSem,
		workers:     opt.Workers,
		maxRetry:    opt.MaxRetry,
		baseBackoff: opt.BaseBackoff,
		maxBackoff:  opt.MaxBackoff,
	}

	d.start()
	return d
}

// Enqueue：把事件放入本地队列。队列满时等待直到 ctx 结束
// （事件不要求强一致，不是每个都必须送达）
func (d *KafkaDispatcher) Enqueue(ctx context.Context, evt ContentChangedEvent) error {
	select {
	case d.queue <- evt:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close 停止接收并等待队列里剩余的事件发送完
func (d *KafkaDispatcher) Close() {
	d.closeOnce.Do(func() { close(d.queue) })
	d.wg.Wait()
}

func (d *KafkaDispatcher) start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.workerLoop(i)
	}
}

func (d *KafkaDispatcher) workerLoop(workerID int) {
	defer d.wg.Done()
	for evt := range d.queue {
		d.sendWithRetry(workerID, evt)
	}
}

func (d *KafkaDispatcher) sendWithRetry(workerID int, evt ContentChangedEvent) bool {
	for attempt := 0; attempt <= d.maxRetry; attempt++ {
		if d.kafkaSem != nil {
			// worker 允许一直等待
			_ = d.kafkaSem.Acquire(context.Background())
		}

		err := d.sendOnce(evt)

		if d.kafkaSem != nil {
			_ = d.kafkaSem.Release()
		}

		if err == nil {
			return true
		}

		if attempt == d.maxRetry {
			log.Printf("kafka send failed, drop event doc=%s rev=%d worker=%d err=%v",
				evt.DocID, evt.Revision, workerID, err)
			return false
		}

		time.Sleep(d.backoff(attempt))
	}
	return false
}

// backoff 每次重试等待时间翻倍，不超过 maxBackoff
func (d *KafkaDispatcher) backoff(attempt int) time.Duration {
	b := d.baseBackoff * time.Duration(1<<attempt)
	if d.maxBackoff > 0 && b > d.maxBackoff {
		b = d.maxBackoff
	}
	return b
}

func (d *KafkaDispatcher) sendOnce(evt ContentChangedEvent) error {
	if d.producer == nil || d.topic == "" {
		return nil
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: d.topic,
		Key:   sarama.StringEncoder(evt.DocID),
		Value: sarama.ByteEncoder(b),
	}
	_, _, err = d.producer.SendMessage(msg)
	return err
}
