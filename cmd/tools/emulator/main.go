package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/SaratA8717/Botbuilder-samples/internal/config"
	"github.com/SaratA8717/Botbuilder-samples/internal/model/activity"
)

const channelID = "emulator"

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] 无法加载 .env，改用系统环境变量: %v", err)
	}

	defaultURL := "http://localhost:" + config.DefaultPort + "/api/messages"
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		defaultURL = "http://localhost:" + port + "/api/messages"
	}

	endpoint := flag.String("url", defaultURL, "机器人消息端点")
	mode := flag.String("mode", "http", "传输模式: http 或 ws")
	text := flag.String("text", "", "只发送一条消息后退出；留空则从标准输入逐行读取")
	conversation := flag.String("conversation", "", "会话 ID，留空则自动生成")
	user := flag.String("user", "user1", "用户 ID")
	userName := flag.String("name", "User", "用户名称")
	welcome := flag.Bool("welcome", true, "开始时发送 conversationUpdate 触发欢迎语")
	timeout := flag.Duration("timeout", 30*time.Second, "单个回合的超时时间")

	flag.Parse()

	if *mode != "http" && *mode != "ws" {
		flag.Usage()
		log.Fatal("请通过 -mode=http 或 -mode=ws 指定传输模式")
	}

	conversationID := *conversation
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	client, err := connect(*mode, *endpoint, conversationID, *timeout)
	if err != nil {
		log.Fatalf("连接机器人失败: %v", err)
	}
	defer client.Close()

	s := &session{
		client:       client,
		out:          os.Stdout,
		timeout:      *timeout,
		user:         activity.ChannelAccount{ID: *user, Name: *userName, Role: "user"},
		bot:          activity.ChannelAccount{ID: "bot", Name: "Bot", Role: "bot"},
		conversation: conversationID,
	}

	if *welcome {
		if err := s.join(); err != nil {
			log.Fatalf("发送 conversationUpdate 失败: %v", err)
		}
	}

	if *text != "" {
		if err := s.say(*text); err != nil {
			log.Fatalf("发送消息失败: %v", err)
		}
		return
	}

	if err := s.repl(os.Stdin); err != nil {
		log.Fatalf("会话异常结束: %v", err)
	}
}

func connect(mode, endpoint, conversationID string, timeout time.Duration) (turnClient, error) {
	if mode == "http" {
		return newHTTPClient(endpoint), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return dialWS(ctx, strings.TrimSuffix(endpoint, "/")+"/stream", conversationID)
}

// session 保存一次模拟会话的身份信息。
type session struct {
	client       turnClient
	out          io.Writer
	timeout      time.Duration
	user         activity.ChannelAccount
	bot          activity.ChannelAccount
	conversation string
}

func (s *session) newActivity(t activity.Type) *activity.Activity {
	return &activity.Activity{
		Type:         t,
		ID:           uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		ChannelID:    channelID,
		From:         s.user,
		Recipient:    s.bot,
		Conversation: activity.ConversationAccount{ID: s.conversation},
		Locale:       "en-US",
	}
}

func (s *session) join() error {
	act := s.newActivity(activity.TypeConversationUpdate)
	act.MembersAdded = []activity.ChannelAccount{s.bot, s.user}
	return s.send(act)
}

func (s *session) say(text string) error {
	act := s.newActivity(activity.TypeMessage)
	act.Text = text
	return s.send(act)
}

func (s *session) send(act *activity.Activity) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	replies, err := s.client.Send(ctx, act)
	for _, reply := range replies {
		fmt.Fprintln(s.out, formatReply(reply))
	}
	return err
}

// repl 逐行读取输入直到 EOF 或输入 /quit。
func (s *session) repl(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(s.out, "you> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
		case "/quit", "/exit":
			return nil
		default:
			if err := s.say(line); err != nil {
				return err
			}
		}
		fmt.Fprint(s.out, "you> ")
	}
	return scanner.Err()
}
