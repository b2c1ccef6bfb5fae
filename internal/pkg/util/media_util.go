package util

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// GetDuration 获取视频时长
func GetDuration(ctx context.Context, ffprobePath string, mediaURL string) (float64, error) {
	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		"-i", mediaURL,
	)

	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe 解析失败: %w", err)
	}

	return strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
}

// GetDimensions 获取视频或图片的像素尺寸
func GetDimensions(ctx context.Context, ffprobePath string, mediaURL string) (int, int, error) {
	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "csv=s=x:p=0",
		"-i", mediaURL,
	)

	out, err := cmd.Output()
	if err != nil {
		return 0, 0, fmt.Errorf("ffprobe 解析失败: %w", err)
	}

	parts := strings.Split(strings.TrimSpace(string(out)), "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("ffprobe 输出格式异常: %q", string(out))
	}
	width, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	height, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return width, height, nil
}

// CaptureFrame 截取视频起始附近的一帧，定位到 0.1s 以跳过可能的黑帧
func CaptureFrame(ctx context.Context, ffmpegPath string, mediaPath string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, ffmpegPath,
		"-ss", "0.1",
		"-i", mediaPath,
		"-frames:v", "1",
		"-f", "image2pipe", "-vcodec", "mjpeg", "pipe:1",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err = cmd.Start(); err != nil {
		return nil, err
	}

	var frame []byte
	scanner := bufio.NewScanner(stdout)
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)
	scanner.Split(splitJPEG)

	if scanner.Scan() {
		data := scanner.Bytes()
		frame = make([]byte, len(data))
		copy(frame, data)
	}

	if err = cmd.Wait(); err != nil {
		return nil, fmt.Errorf("ffmpeg 截帧失败: %w, stderr: %s", err, stderr.String())
	}
	if len(frame) == 0 {
		return nil, fmt.Errorf("ffmpeg 未输出任何帧")
	}
	return frame, nil
}

// splitJPEG 辅助函数：基于特征码切割 JPEG 流
func splitJPEG(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.Index(data, []byte{0xFF, 0xD9}); i >= 0 {
		return i + 2, data[0 : i+2], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
